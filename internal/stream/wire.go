package stream

import (
	"encoding/base64"
	"encoding/json"

	"github.com/serenemind/emotion-monitor/internal/emotion"
)

// outboundMessage is the wire format for one frame sent to the inference
// service.
type outboundMessage struct {
	Data   string         `json:"data"`
	Models outboundModels `json:"models"`
}

type outboundModels struct {
	Face struct{} `json:"face"`
}

// inboundMessage is the wire format for one inference response. Either Face
// or Error is set; anything else is treated as malformed.
type inboundMessage struct {
	Face  *facePayload `json:"face"`
	Error string       `json:"error"`
}

type facePayload struct {
	Predictions []facePrediction `json:"predictions"`
	Warning     string           `json:"warning"`
}

type facePrediction struct {
	Emotions []emotion.Sample `json:"emotions"`
}

func encodeFrame(image []byte) ([]byte, error) {
	msg := outboundMessage{Data: base64.StdEncoding.EncodeToString(image)}
	return json.Marshal(msg)
}

// parsed is the reduced form of one inbound message.
type parsed struct {
	samples []emotion.Sample
	warning string
}

// parseInbound decodes one inference response. Malformed payloads and
// error-bearing responses both come back as warnings, never errors: the
// connection stays up and the tick simply produces no classification.
func parseInbound(data []byte) parsed {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return parsed{warning: "malformed inference response: " + err.Error()}
	}
	if msg.Error != "" {
		return parsed{warning: msg.Error}
	}
	if msg.Face == nil {
		return parsed{warning: "inference response missing face payload"}
	}
	if msg.Face.Warning != "" {
		return parsed{warning: msg.Face.Warning}
	}
	var samples []emotion.Sample
	for _, p := range msg.Face.Predictions {
		samples = append(samples, p.Emotions...)
	}
	if len(samples) == 0 {
		return parsed{warning: "inference response contained no emotion samples"}
	}
	return parsed{samples: samples}
}
