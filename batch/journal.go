package batch

// journal buffers inverse actions as forward mutations commit. Rollback is a
// reverse-ordered replay; each inverse captures enough prior state (pin
// values, dropped connections, node snapshots) at commit time that replay
// cannot fail. Reverse order also guarantees structural preconditions: a
// connection made after a pin split is disconnected before the split's
// inverse recombines the pin.
type journal struct {
	inverses []func()
}

func newJournal() *journal {
	return &journal{}
}

// record appends the inverse of a mutation that just committed.
func (j *journal) record(inverse func()) {
	j.inverses = append(j.inverses, inverse)
}

// rollback replays every buffered inverse in reverse order and clears the
// journal.
func (j *journal) rollback() {
	for i := len(j.inverses) - 1; i >= 0; i-- {
		j.inverses[i]()
	}
	j.inverses = nil
}

// size reports the number of committed mutations awaiting potential rollback.
func (j *journal) size() int {
	return len(j.inverses)
}
