package main

import (
	"testing"
	"time"
)

func TestAnalyticsFlushOnStop(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)

	a.Track(EvtRoomCreated, 0, "ABCD", "")
	a.Track(EvtRoundStarted, 0, "ABCD", `{"players":2}`)
	a.Track(EvtPlayerDied, 0, "ABCD", "")
	a.Track(EvtPlayerDied, 0, "ABCD", "")
	a.Stop()

	counts, err := a.EventCounts(1)
	if err != nil {
		t.Fatalf("EventCounts: %v", err)
	}
	if counts[EvtPlayerDied] != 2 || counts[EvtRoomCreated] != 1 || counts[EvtRoundStarted] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}

	// Tracking after shutdown must not panic
	a.Track(EvtRoundEnded, 0, "ABCD", "")
	a.Stop()
}

func TestAnalyticsBatchFlush(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)
	defer a.Stop()

	for i := 0; i < analyticsBatch; i++ {
		a.Track(EvtPlayerDied, 0, "WXYZ", "")
	}
	waitFor(t, 2*time.Second, "batch flush", func() bool {
		counts, err := a.EventCounts(1)
		return err == nil && counts[EvtPlayerDied] == analyticsBatch
	})
}

func TestAnalyticsNilSafe(t *testing.T) {
	var a *Analytics
	a.Track(EvtRoomCreated, 0, "", "")
	a.Stop()
	counts, err := a.EventCounts(7)
	if err != nil || len(counts) != 0 {
		t.Errorf("expected empty counts from nil analytics, got %v %v", counts, err)
	}

	// Without a database the writer just drops events
	b := NewAnalytics(nil)
	b.Track(EvtRoomCreated, 0, "ABCD", "")
	b.Stop()
}
