package main

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"
)

// Event types for analytics tracking
const (
	EvtRoomCreated  = "room_created"
	EvtRoundStarted = "round_started"
	EvtRoundEnded   = "round_ended"
	EvtPlayerDied   = "player_died"
	EvtAccountLogin = "account_login"
)

const (
	analyticsQueue     = 1024
	analyticsBatch     = 50
	analyticsFlushTick = 5 * time.Second
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	AccountID int64
	RoomCode  string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics handles event tracking with batched background writes
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, analyticsQueue),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType string, accountID int64, roomCode string, data string) {
	if a == nil {
		return
	}
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		AccountID: accountID,
		RoomCode:  roomCode,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// queue full: drop rather than stall a round
	}
}

// Stop flushes queued events and shuts down the writer
func (a *Analytics) Stop() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		close(a.stop)
		a.wg.Wait()
	})
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, 64)
	ticker := time.NewTicker(analyticsFlushTick)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatch {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
					continue
				default:
				}
				break
			}
			a.flush(batch)
			return
		}
	}
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		slog.Error("analytics: begin tx", "error", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, account_id, room_code, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		slog.Error("analytics: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		aid := sql.NullInt64{Int64: evt.AccountID, Valid: evt.AccountID > 0}
		code := sql.NullString{String: evt.RoomCode, Valid: evt.RoomCode != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, aid, code, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			slog.Error("analytics: insert", "error", err)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("analytics: commit", "error", err)
	}
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a == nil || a.db == nil {
		return map[string]int{}, nil
	}
	since := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= ?
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}
