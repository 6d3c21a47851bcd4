package state

// EventSequence returns the sequence number of the last committed event.
func (m *Manager) EventSequence() (uint64, error) {
	return m.getUint(eventSequenceKey)
}

// SetEventSequence records the sequence number of the last committed event.
func (m *Manager) SetEventSequence(seq uint64) error {
	return m.putUint(eventSequenceKey, seq)
}
