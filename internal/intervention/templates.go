package intervention

import (
	"fmt"

	"github.com/serenemind/emotion-monitor/internal/emotion"
)

type templateKey struct {
	severity emotion.Severity
	emotion  string
}

type responseTemplate struct {
	response  string
	followUps []string
}

// specificTemplates are tuned responses for well-known severity/emotion
// pairs. Anything not listed here falls back to the per-severity generic
// template parameterized by the emotion name.
var specificTemplates = map[templateKey]responseTemplate{
	{emotion.SeverityHigh, "sadness"}: {
		response: "I can see you're going through something really painful right now. You don't have to carry this alone — I'm right here with you.",
		followUps: []string{
			"Take five slow, deep breaths",
			"Reach out to someone you trust",
			"If this feels overwhelming, consider calling a support line",
		},
	},
	{emotion.SeverityHigh, "despair"}: {
		response: "What you're feeling right now is incredibly heavy, and I want you to know it matters. Please stay with me for a moment.",
		followUps: []string{
			"Focus on one breath at a time",
			"Call or message someone who cares about you",
			"A crisis line can help right now, day or night",
		},
	},
	{emotion.SeverityHigh, "fear"}: {
		response: "It looks like something is frightening you intensely. You are safe here with me right now — let's slow things down together.",
		followUps: []string{
			"Name five things you can see around you",
			"Take slow breaths, longer out than in",
			"Move to a place where you feel safer if you can",
		},
	},
	{emotion.SeverityHigh, "hopelessness"}: {
		response: "When everything feels hopeless, even small moments are hard. This feeling is real, but it is not permanent — and you are not alone in it.",
		followUps: []string{
			"Reach out to one person, even with a single message",
			"Write down one thing that has helped before",
			"A support line is there whenever you need a voice",
		},
	},
	{emotion.SeverityMedium, "anger"}: {
		response: "I can tell something is really frustrating you. That energy is valid — let's find a way to release it gently.",
		followUps: []string{
			"Step away from the situation for a few minutes",
			"Try ten slow breaths before responding to anything",
			"Move your body: a short walk can shift the moment",
		},
	},
	{emotion.SeverityMedium, "anxiety"}: {
		response: "It seems like worry is building up right now. Let's bring things back to this moment — you're okay right here.",
		followUps: []string{
			"Try the 5-4-3-2-1 grounding exercise",
			"Write down the worry to get it out of your head",
			"Slow your breathing for one minute",
		},
	},
	{emotion.SeverityMedium, "stress"}: {
		response: "You seem under a lot of pressure. It's okay to pause — nothing needs your answer this very second.",
		followUps: []string{
			"Take a five-minute break away from the screen",
			"Pick the one smallest next step and do only that",
			"Stretch your shoulders and unclench your jaw",
		},
	},
	{emotion.SeverityLow, "sadness"}: {
		response: "I notice a bit of sadness. Whatever is on your mind, it's worth being kind to yourself about it.",
		followUps: []string{
			"Put on something comforting to listen to",
			"Jot a line or two about how you're feeling",
		},
	},
}

// genericTemplates cover any negative emotion at each severity. The emotion
// name is spliced into the response.
var genericTemplates = map[emotion.Severity]responseTemplate{
	emotion.SeverityHigh: {
		response: "I notice you're experiencing intense %s right now. I'm right here with you — let's get through this moment together.",
		followUps: []string{
			"Take five slow, deep breaths",
			"Reach out to someone you trust",
			"If this feels overwhelming, consider calling a support line",
		},
	},
	emotion.SeverityMedium: {
		response: "It looks like %s is weighing on you. Let's take a moment to check in with yourself.",
		followUps: []string{
			"Pause for a short breathing break",
			"Step away from what you're doing for a few minutes",
		},
	},
	emotion.SeverityLow: {
		response: "I'm picking up some %s. A small moment of care for yourself could help right now.",
		followUps: []string{
			"Take a brief stretch or a sip of water",
			"Note how you're feeling in a journal",
		},
	},
}

// lookupTemplate resolves the response for a severity and dominant emotion,
// falling back to the severity generic.
func lookupTemplate(severity emotion.Severity, dominant string) (string, []string) {
	if tpl, ok := specificTemplates[templateKey{severity, dominant}]; ok {
		return tpl.response, tpl.followUps
	}
	tpl := genericTemplates[severity]
	return fmt.Sprintf(tpl.response, dominant), tpl.followUps
}

// urgencyFor maps severity tiers to their presentation urgency.
func urgencyFor(severity emotion.Severity) Urgency {
	switch severity {
	case emotion.SeverityHigh:
		return UrgencyImmediate
	case emotion.SeverityMedium:
		return UrgencyModerate
	default:
		return UrgencyGentle
	}
}
