package intervention

// history is a fixed-capacity ring buffer of intervention records. Once
// full, each push evicts the oldest entry.
type history struct {
	records []Record
	head    int // index of the oldest record
	count   int
}

func newHistory(capacity int) *history {
	return &history{records: make([]Record, capacity)}
}

func (h *history) push(r Record) {
	if h.count < len(h.records) {
		h.records[(h.head+h.count)%len(h.records)] = r
		h.count++
		return
	}
	// Full: overwrite the oldest slot and move the head.
	h.records[h.head] = r
	h.head = (h.head + 1) % len(h.records)
}

func (h *history) len() int { return h.count }

// snapshot returns the records oldest-first.
func (h *history) snapshot() []Record {
	out := make([]Record, 0, h.count)
	for i := 0; i < h.count; i++ {
		out = append(out, h.records[(h.head+i)%len(h.records)])
	}
	return out
}
