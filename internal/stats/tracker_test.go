package stats

import (
	"sync"
	"testing"
	"time"
)

func TestTracker_FirstReportInitializes(t *testing.T) {
	tracker := NewStatTracker()
	sent := tracker.NewDomain("producers").NewStat(StatMessagesSent)

	sent.Incr(5)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	reports := tracker.Report(now)
	if len(reports["producers"]) != 0 {
		t.Errorf("Expected no reports on first call, got %d", len(reports["producers"]))
	}

	sent.Incr(10)
	reports = tracker.Report(now.Add(2 * time.Second))

	r := reports["producers"]
	if len(r) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(r))
	}
	if r[0].Delta() != 10 {
		t.Errorf("Expected delta 10, got %d", r[0].Delta())
	}
	if r[0].Type() != StatMessagesSent {
		t.Errorf("Expected %s, got %s", StatMessagesSent, r[0].Type())
	}
	if got := r[0].Report(); got != "10 sent (5.00 msgs/sec)" {
		t.Errorf("Unexpected report line %q", got)
	}
}

func TestTracker_SharedStatPerDomain(t *testing.T) {
	tracker := NewStatTracker()

	a := tracker.NewDomain("consumers").NewStat(StatMessagesClaimed)
	b := tracker.NewDomain("consumers").NewStat(StatMessagesClaimed)
	other := tracker.NewDomain("producers").NewStat(StatMessagesSent)

	a.Incr(1)
	b.Incr(2)
	other.Incr(4)

	if a.Value() != 3 || b.Value() != 3 {
		t.Errorf("Expected stats of the same domain and type to be shared, got %d and %d", a.Value(), b.Value())
	}

	totals := tracker.Totals()
	if totals["consumers"][StatMessagesClaimed] != 3 {
		t.Errorf("Expected 3 claimed, got %d", totals["consumers"][StatMessagesClaimed])
	}
	if totals["producers"][StatMessagesSent] != 4 {
		t.Errorf("Expected 4 sent, got %d", totals["producers"][StatMessagesSent])
	}
}

func TestTracker_ReportsSortedByDesc(t *testing.T) {
	tracker := NewStatTracker()
	b := tracker.NewDomain("consumers")
	for _, st := range []StatType{StatMessagesSkipped, StatMessagesLagged, StatMessagesClaimed} {
		b.NewStat(st).Incr(1)
	}

	now := time.Now()
	tracker.Report(now)
	reports := tracker.Report(now.Add(time.Second))["consumers"]

	want := []StatType{StatMessagesClaimed, StatMessagesLagged, StatMessagesSkipped}
	if len(reports) != len(want) {
		t.Fatalf("Expected %d reports, got %d", len(want), len(reports))
	}
	for i, st := range want {
		if reports[i].Type() != st {
			t.Errorf("Expected report %d to be %s, got %s", i, st, reports[i].Type())
		}
	}
}

func TestStat_ConcurrentIncr(t *testing.T) {
	s := NewStatTracker().NewDomain("producers").NewStat(StatMessagesSent)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Incr(1)
			}
		}()
	}
	wg.Wait()

	if s.Value() != 10000 {
		t.Errorf("Expected 10000, got %d", s.Value())
	}
}

func TestStatType_String(t *testing.T) {
	if StatMessagesLagged.String() != "messages_lagged" {
		t.Errorf("Unexpected name %q", StatMessagesLagged.String())
	}
	if StatType(99).String() != "unknown" {
		t.Errorf("Unexpected name %q", StatType(99).String())
	}
}
