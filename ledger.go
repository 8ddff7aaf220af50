package floodprobe

import (
	"sync"
)

// OutcomeLedger is the per-phase append-only outcome log. It must hold a
// single invariant under any number of concurrent writers: every issued
// request yields exactly one recorded outcome, no losses, no duplicates.
type OutcomeLedger struct {
	mu       sync.RWMutex
	outcomes []RequestOutcome
}

func NewOutcomeLedger() *OutcomeLedger {
	return &OutcomeLedger{}
}

// Record appends a single outcome. Safe for concurrent writers.
func (l *OutcomeLedger) Record(outcome RequestOutcome) {
	l.mu.Lock()
	l.outcomes = append(l.outcomes, outcome)
	l.mu.Unlock()
}

// Len reports the number of recorded outcomes.
func (l *OutcomeLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.outcomes)
}

// SuccessCount reports the number of successful outcomes so far.
func (l *OutcomeLedger) SuccessCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	count := 0
	for _, o := range l.outcomes {
		if o.Success {
			count++
		}
	}
	return count
}

// Snapshot returns a copy of the recorded outcomes. Entries are immutable
// once recorded, so the copy shares no mutable state with writers.
func (l *OutcomeLedger) Snapshot() []RequestOutcome {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]RequestOutcome, len(l.outcomes))
	copy(out, l.outcomes)
	return out
}
