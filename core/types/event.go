package types

// Event represents a typed event emitted during state transitions.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	// Sequence orders events across committed transactions. It is assigned
	// by the engine when the transaction commits.
	Sequence uint64 `json:"sequence,omitempty"`
	// Timestamp is the engine clock (unix seconds) at commit.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Attr returns the attribute value for key or the empty string.
func (e *Event) Attr(key string) string {
	if e == nil || e.Attributes == nil {
		return ""
	}
	return e.Attributes[key]
}
