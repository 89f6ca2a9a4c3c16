package mongodb

import (
	"sync"
	"testing"
	"time"
)

func TestCollectionName(t *testing.T) {
	if got := CollectionName("megakem"); got != "megakem_records" {
		t.Fatalf("CollectionName() = %q, want megakem_records", got)
	}
}

func TestNextTimestampIsStrictlyIncreasing(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	r := &MongoDBRepository{now: func() time.Time { return frozen }}

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts := r.nextTimestamp()
			mu.Lock()
			defer mu.Unlock()
			if seen[ts] {
				t.Errorf("duplicate timestamp %d", ts)
			}
			seen[ts] = true
		}()
	}
	wg.Wait()

	if len(seen) != 100 {
		t.Fatalf("unique timestamps = %d, want 100", len(seen))
	}
	if !seen[frozen.UnixMilli()] || !seen[frozen.UnixMilli()+99] {
		t.Fatal("timestamps should start at the clock and step by one when it stalls")
	}
}
