// Package audit persists an append-only record of the operator-visible
// events the pipeline produces: configuration changes and path-crossing
// conflicts. Nothing in the pipeline reads it back. Conflict events are
// written synchronously from the path resolver's cycle, so a slow audit
// database delays that cycle; a failed write is logged and does not
// change the resolver's output. The live pipeline stores hold no
// persisted state of their own; this is a supplementary log only.
package audit

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/swarmgrid/formation.control/internal/commandcfg"
	"github.com/swarmgrid/formation.control/internal/monitoring"
	"github.com/swarmgrid/formation.control/internal/pathresolver"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Log writes audit events to a SQLite database.
type Log struct {
	db *sql.DB
}

// Open creates or migrates the database at path and returns a ready Log.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %q: %w", path, err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Log{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("audit: apply %q: %w", p, err)
		}
	}
	return nil
}

func migrateUp(db *sql.DB) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("audit: sub-filesystem for migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("audit: iofs source: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("audit: sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("audit: migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("audit: migrate up: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

type configChangeDetail struct {
	Command string  `json:"command"`
	Shape   string  `json:"shape"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Theta   float64 `json:"theta"`
}

// RecordConfigChange stamps and persists a ConfigurationManager command.
func (l *Log) RecordConfigChange(msg commandcfg.Message) error {
	command := "configure"
	if msg.Command == commandcfg.Move {
		command = "move"
	}
	detail := configChangeDetail{
		Command: command,
		Shape:   msg.Shape.String(),
		X:       msg.Target.X,
		Y:       msg.Target.Y,
		Theta:   msg.Target.Theta,
	}
	return l.insert("config_change", nil, nil, detail)
}

type conflictDetail struct {
	IntersectionX       float64 `json:"intersection_x"`
	IntersectionY       float64 `json:"intersection_y"`
	TimeToIntersectionA float64 `json:"time_to_intersection_a"`
	TimeToIntersectionB float64 `json:"time_to_intersection_b"`
}

// RecordConflict persists a newly detected path conflict.
func (l *Log) RecordConflict(c pathresolver.PathConflict) error {
	detail := conflictDetail{
		IntersectionX:       c.IntersectionX,
		IntersectionY:       c.IntersectionY,
		TimeToIntersectionA: c.TimeToIntersectionA,
		TimeToIntersectionB: c.TimeToIntersectionB,
	}
	a, b := c.RobotA, c.RobotB
	return l.insert("conflict_detected", &a, &b, detail)
}

// RecordConflictCleared persists the resolution of a conflicting pair.
func (l *Log) RecordConflictCleared(robotA, robotB int) error {
	return l.insert("conflict_cleared", &robotA, &robotB, struct{}{})
}

func (l *Log) insert(eventType string, agentA, agentB *int, detail interface{}) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("audit: marshal %s detail: %w", eventType, err)
	}
	_, err = l.db.Exec(
		`INSERT INTO audit_events (event_id, occurred_unix_nanos, event_type, agent_a, agent_b, detail_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), time.Now().UnixNano(), eventType, agentA, agentB, string(payload),
	)
	if err != nil {
		monitoring.Logf("audit: failed to record %s event: %v", eventType, err)
		return fmt.Errorf("audit: insert %s event: %w", eventType, err)
	}
	return nil
}
