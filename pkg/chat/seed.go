package chat

// SeedHistory returns a RunThread seed function that carries the
// previous turn's transcript into the incoming state. The previous
// run's classification, working data, output, and fault are not
// carried: each turn starts clean with only the conversation behind
// it. A positive limit caps the merged transcript to its most recent
// messages.
func SeedHistory(limit int) func(prev, incoming State) State {
	return func(prev, incoming State) State {
		merged := make([]Message, 0, len(prev.Messages)+len(incoming.Messages))
		merged = append(merged, prev.Messages...)
		merged = append(merged, incoming.Messages...)
		incoming.Messages = merged
		if limit > 0 {
			incoming = incoming.TrimHistory(limit)
		}
		return incoming
	}
}
