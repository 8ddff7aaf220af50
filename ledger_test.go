package floodprobe

import (
	"sync"
	"testing"
	"time"
)

func TestLedgerRecordAndSnapshot(t *testing.T) {
	ledger := NewOutcomeLedger()
	ledger.Record(RequestOutcome{Success: true, StatusCode: 200})
	ledger.Record(RequestOutcome{ErrorKind: ErrorKindTimeout})

	if ledger.Len() != 2 {
		t.Fatalf("len = %d, want 2", ledger.Len())
	}
	if ledger.SuccessCount() != 1 {
		t.Fatalf("success count = %d, want 1", ledger.SuccessCount())
	}

	snap := ledger.Snapshot()
	ledger.Record(RequestOutcome{Success: true})
	if len(snap) != 2 {
		t.Fatalf("snapshot grew with the ledger: len = %d", len(snap))
	}
}

func TestLedgerConcurrentWritersLoseNothing(t *testing.T) {
	const writers = 100
	const perWriter = 200

	ledger := NewOutcomeLedger()
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				ledger.Record(RequestOutcome{
					StartedAt: time.Now(),
					Success:   j%2 == 0,
				})
			}
		}(i)
	}
	wg.Wait()

	if got, want := ledger.Len(), writers*perWriter; got != want {
		t.Fatalf("recorded %d outcomes, want %d", got, want)
	}
	if got, want := ledger.SuccessCount(), writers*perWriter/2; got != want {
		t.Fatalf("success count %d, want %d", got, want)
	}
}
