package commandcfg

import (
	"math"
	"testing"

	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/shapes"
)

func TestUpdateConfigurationAppliesAtomically(t *testing.T) {
	m := NewManager()
	err := m.UpdateConfiguration(Message{
		Command: Configure,
		Shape:   shapes.Square,
		Target:  geometry.Pose2D{X: 1, Y: 2, Theta: 0.5},
	})
	if err != nil {
		t.Fatalf("UpdateConfiguration returned error: %v", err)
	}

	got := m.GetCurrentConfig()
	want := Snapshot{Command: Configure, Shape: shapes.Square, Target: geometry.Pose2D{X: 1, Y: 2, Theta: 0.5}}
	if got != want {
		t.Fatalf("GetCurrentConfig() = %+v, want %+v", got, want)
	}
}

func TestUpdateConfigurationRejectsNonFiniteTarget(t *testing.T) {
	m := NewManager()
	before := m.GetCurrentConfig()

	err := m.UpdateConfiguration(Message{
		Command: Configure,
		Shape:   shapes.Diamond,
		Target:  geometry.Pose2D{X: math.NaN(), Y: 0, Theta: 0},
	})
	if err == nil {
		t.Fatal("expected an error for a NaN target field")
	}

	after := m.GetCurrentConfig()
	if after != before {
		t.Fatalf("rejected update mutated the configuration: before=%+v after=%+v", before, after)
	}
}

func TestMoveCommandKeepsShape(t *testing.T) {
	m := NewManager()
	if err := m.UpdateConfiguration(Message{Command: Configure, Shape: shapes.Triangle, Target: geometry.Pose2D{}}); err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateConfiguration(Message{Command: Move, Target: geometry.Pose2D{X: 5, Y: 5, Theta: 1}}); err != nil {
		t.Fatal(err)
	}

	got := m.GetCurrentConfig()
	if got.Shape != shapes.Triangle {
		t.Errorf("shape after Move = %v, want %v (unchanged)", got.Shape, shapes.Triangle)
	}
	if got.Target.X != 5 || got.Target.Y != 5 {
		t.Errorf("target after Move = %+v, want (5,5)", got.Target)
	}
}
