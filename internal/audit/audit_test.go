package audit

import (
	"path/filepath"
	"testing"

	"github.com/swarmgrid/formation.control/internal/commandcfg"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/pathresolver"
	"github.com/swarmgrid/formation.control/internal/shapes"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	l, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func countEvents(t *testing.T, l *Log, eventType string) int {
	t.Helper()
	var n int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM audit_events WHERE event_type = ?`, eventType).Scan(&n); err != nil {
		t.Fatalf("count %s events: %v", eventType, err)
	}
	return n
}

func TestOpenAppliesMigrations(t *testing.T) {
	l := openTestLog(t)
	var tableName string
	err := l.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='audit_events'`).Scan(&tableName)
	if err != nil {
		t.Fatalf("expected audit_events table to exist: %v", err)
	}
}

func TestRecordConfigChange(t *testing.T) {
	l := openTestLog(t)
	msg := commandcfg.Message{Command: commandcfg.Configure, Shape: shapes.Square, Target: geometry.Pose2D{X: 1, Y: 1}}
	if err := l.RecordConfigChange(msg); err != nil {
		t.Fatalf("RecordConfigChange: %v", err)
	}
	if got := countEvents(t, l, "config_change"); got != 1 {
		t.Fatalf("config_change rows = %d, want 1", got)
	}
}

func TestRecordConflictAndClear(t *testing.T) {
	l := openTestLog(t)
	c := pathresolver.PathConflict{RobotA: 0, RobotB: 1, IntersectionX: 0.5, IntersectionY: 0.5}
	if err := l.RecordConflict(c); err != nil {
		t.Fatalf("RecordConflict: %v", err)
	}
	if err := l.RecordConflictCleared(0, 1); err != nil {
		t.Fatalf("RecordConflictCleared: %v", err)
	}
	if got := countEvents(t, l, "conflict_detected"); got != 1 {
		t.Fatalf("conflict_detected rows = %d, want 1", got)
	}
	if got := countEvents(t, l, "conflict_cleared"); got != 1 {
		t.Fatalf("conflict_cleared rows = %d, want 1", got)
	}
}

func TestRecordConflictStampsDistinctEventIDs(t *testing.T) {
	l := openTestLog(t)
	c := pathresolver.PathConflict{RobotA: 2, RobotB: 3}
	if err := l.RecordConflict(c); err != nil {
		t.Fatalf("RecordConflict: %v", err)
	}
	if err := l.RecordConflict(c); err != nil {
		t.Fatalf("RecordConflict: %v", err)
	}
	rows, err := l.db.Query(`SELECT event_id FROM audit_events WHERE event_type = 'conflict_detected'`)
	if err != nil {
		t.Fatalf("query event ids: %v", err)
	}
	defer rows.Close()
	seen := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate event_id %q", id)
		}
		seen[id] = true
	}
	if len(seen) != 2 {
		t.Fatalf("distinct event ids = %d, want 2", len(seen))
	}
}
