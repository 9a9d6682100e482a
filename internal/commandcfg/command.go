// Package commandcfg implements ConfigurationManager: the event-driven
// store of the latest user command. It is not periodic — it only reacts
// to UpdateConfiguration calls and serves GetCurrentConfig snapshots to
// GlobalSupervisor.
package commandcfg

import (
	"fmt"
	"math"
	"sync"

	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/shapes"
)

// CommandType distinguishes the two kinds of configuration messages: changing
// the formation shape, or moving the existing formation to a new world pose.
type CommandType int

const (
	// Configure selects a new formation shape anchored at Target.
	Configure CommandType = iota
	// Move keeps the current shape but retargets the formation's anchor pose.
	Move
)

// Message is the payload ConfigurationManager accepts from the GUI layer.
type Message struct {
	Command CommandType
	Shape   shapes.Shape
	Target  geometry.Pose2D
}

// Manager guards (command_type, shape, target_pose) with a lock and
// publishes atomic snapshots.
type Manager struct {
	mu      sync.Mutex
	command CommandType
	shape   shapes.Shape
	target  geometry.Pose2D
}

// NewManager returns a Manager with the LINE shape at the world origin as
// its initial configuration.
func NewManager() *Manager {
	return &Manager{shape: shapes.Line}
}

// UpdateConfiguration atomically replaces the held command, shape and
// target. Non-finite target fields are rejected: malformed input is
// logged by the caller and never reaches the store.
func (m *Manager) UpdateConfiguration(msg Message) error {
	if err := validateTarget(msg.Target); err != nil {
		return fmt.Errorf("reject configuration update: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.command = msg.Command
	switch msg.Command {
	case Configure:
		m.shape = msg.Shape
	case Move:
		// shape is left unchanged; only the anchor pose moves.
	}
	m.target = msg.Target
	return nil
}

func validateTarget(p geometry.Pose2D) error {
	for name, v := range map[string]float64{"x": p.X, "y": p.Y, "theta": p.Theta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("target field %q is not a finite number: %v", name, v)
		}
	}
	return nil
}

// Snapshot is an atomic copy of the currently held configuration.
type Snapshot struct {
	Command CommandType
	Shape   shapes.Shape
	Target  geometry.Pose2D
}

// GetCurrentConfig returns a snapshot of the current configuration.
func (m *Manager) GetCurrentConfig() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Command: m.command, Shape: m.shape, Target: m.target}
}
