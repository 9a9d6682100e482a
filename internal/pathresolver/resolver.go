package pathresolver

import (
	"sort"
	"sync"
	"time"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/monitoring"
	"github.com/swarmgrid/formation.control/internal/timeutil"
)

type pairKey struct{ a, b int }

func orderedPair(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Resolver detects pairwise conflicts between raw agent targets and
// resolves them with a priority-based wait strategy: the lower-id robot of
// a conflicting pair continues, the higher-id robot holds its current
// pose. An active-conflict set with hysteresis avoids chatter at the
// detection boundary.
type Resolver struct {
	Context  *fcontext.Context
	Interval time.Duration
	Clock    timeutil.Clock

	CollisionRadius float64
	TimeWindow      float64
	SpeedMin        float64
	SpeedMax        float64
	ClearMargin     float64

	// Recorder, if set, is notified of conflict open/close transitions for
	// external audit logging. It is never required for correctness.
	Recorder ConflictRecorder

	mu              sync.Mutex
	enabled         bool
	activeConflicts map[pairKey]struct{}

	stop chan struct{}
}

// ConflictRecorder receives conflict lifecycle events. audit.Log implements
// this without pathresolver needing to import the audit package.
type ConflictRecorder interface {
	RecordConflict(PathConflict) error
	RecordConflictCleared(robotA, robotB int) error
}

// New builds a Resolver at the standard 20 Hz cadence, reading its radii
// and thresholds from the shared tuning config.
func New(ctx *fcontext.Context) *Resolver {
	return &Resolver{
		Context:         ctx,
		Interval:        50 * time.Millisecond,
		Clock:           timeutil.RealClock{},
		CollisionRadius: ctx.Tuning.GetPCRCollisionRadius(),
		TimeWindow:      ctx.Tuning.GetPCRTimeWindow(),
		SpeedMin:        ctx.Tuning.GetPCRRobotSpeedMin(),
		SpeedMax:        ctx.Tuning.GetPCRRobotSpeedMax(),
		ClearMargin:     ctx.Tuning.GetPCRClearMargin(),
		enabled:         true,
		activeConflicts: make(map[pairKey]struct{}),
		stop:            make(chan struct{}),
	}
}

// SetEnabled toggles conflict resolution. Disabling clears the active set
// so targets pass straight through.
func (r *Resolver) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
	if !enabled {
		r.activeConflicts = make(map[pairKey]struct{})
	}
}

func (r *Resolver) isEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// ActiveConflictCount reports the number of conflicting pairs currently
// under hysteresis, for diagnostics surfaces.
func (r *Resolver) ActiveConflictCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.activeConflicts)
}

// Start runs the resolver loop in its own goroutine.
func (r *Resolver) Start() {
	go r.run()
}

// Stop requests the resolver loop to exit.
func (r *Resolver) Stop() {
	close(r.stop)
}

func (r *Resolver) run() {
	ticker := r.Clock.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			r.cycle()
		case <-r.stop:
			return
		}
	}
}

func (r *Resolver) cycle() {
	rawTargets := r.Context.RawTarget.GetAll()
	poses := r.Context.AgentPose.GetAll()

	if !r.isEnabled() || len(rawTargets) == 0 || len(poses) == 0 {
		r.Context.Resolved.UpdateBatch(rawTargets)
		return
	}

	conflicts := r.DetectConflicts(rawTargets, poses)
	resolved := r.ResolveConflicts(rawTargets, poses, conflicts)
	r.Context.Resolved.UpdateBatch(resolved)
}

// DetectConflicts finds conflicting pairs among the given raw targets and
// current poses, checking proximity, path crossing, and target proximity
// in that order of precedence.
func (r *Resolver) DetectConflicts(targets map[int]geometry.Pose2D, poses map[int]*geometry.Pose2D) []PathConflict {
	ids := make([]int, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var conflicts []PathConflict
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			targetA, okA := targets[a]
			targetB, okB := targets[b]
			poseA := poses[a]
			poseB := poses[b]
			if !okA || !okB || poseA == nil || poseB == nil {
				continue
			}

			p1, t1 := *poseA, targetA
			p2, t2 := *poseB, targetB

			if d := geometry.Distance(p1, p2); d < r.CollisionRadius {
				conflicts = append(conflicts, PathConflict{RobotA: a, RobotB: b, IntersectionX: p1.X, IntersectionY: p1.Y})
				continue
			}

			if ok, ix, iy := segmentsIntersect(p1, t1, p2, t2); ok {
				point := geometry.Pose2D{X: ix, Y: iy}
				timeA := estimateTimeToPoint(p1, point, t1, r.SpeedMin, r.SpeedMax)
				timeB := estimateTimeToPoint(p2, point, t2, r.SpeedMin, r.SpeedMax)
				if absFloat(timeA-timeB) < r.TimeWindow {
					conflicts = append(conflicts, PathConflict{
						RobotA: a, RobotB: b,
						IntersectionX: ix, IntersectionY: iy,
						TimeToIntersectionA: timeA, TimeToIntersectionB: timeB,
					})
				}
			} else if geometry.Distance(t1, t2) < r.CollisionRadius {
				conflicts = append(conflicts, PathConflict{
					RobotA: a, RobotB: b,
					IntersectionX: t1.X, IntersectionY: t1.Y,
					TimeToIntersectionA: estimateTimeToPoint(p1, t1, t1, r.SpeedMin, r.SpeedMax),
					TimeToIntersectionB: estimateTimeToPoint(p2, t2, t2, r.SpeedMin, r.SpeedMax),
				})
			}
		}
	}
	return conflicts
}

// ResolveConflicts applies the wait strategy: the higher-id robot of every
// active conflict pair holds its current pose as its resolved target.
func (r *Resolver) ResolveConflicts(targets map[int]geometry.Pose2D, poses map[int]*geometry.Pose2D, conflicts []PathConflict) map[int]geometry.Pose2D {
	resolved := make(map[int]geometry.Pose2D, len(targets))
	for id, t := range targets {
		resolved[id] = t
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	currentPairs := make(map[pairKey]struct{}, len(conflicts))
	waiting := make(map[int]struct{})
	for _, c := range conflicts {
		pair := orderedPair(c.RobotA, c.RobotB)
		currentPairs[pair] = struct{}{}
		if c.RobotA > c.RobotB {
			waiting[c.RobotA] = struct{}{}
		} else {
			waiting[c.RobotB] = struct{}{}
		}
	}

	for _, c := range conflicts {
		pair := orderedPair(c.RobotA, c.RobotB)
		if _, ok := r.activeConflicts[pair]; !ok {
			monitoring.Logf("pathresolver: conflict detected between robot %d and robot %d", pair.a, pair.b)
			r.activeConflicts[pair] = struct{}{}
			if r.Recorder != nil {
				if err := r.Recorder.RecordConflict(c); err != nil {
					monitoring.Logf("pathresolver: failed to record conflict: %v", err)
				}
			}
		}
	}

	for pair := range r.activeConflicts {
		if _, stillActive := currentPairs[pair]; stillActive {
			continue
		}
		poseA, poseB := poses[pair.a], poses[pair.b]
		targetA, okTargetA := targets[pair.a]
		if poseA == nil || poseB == nil || !okTargetA {
			continue
		}
		distToTarget := geometry.Distance(*poseA, targetA)
		if distToTarget < r.CollisionRadius*r.ClearMargin {
			delete(r.activeConflicts, pair)
			monitoring.Logf("pathresolver: conflict cleared between robot %d and robot %d", pair.a, pair.b)
			if r.Recorder != nil {
				if err := r.Recorder.RecordConflictCleared(pair.a, pair.b); err != nil {
					monitoring.Logf("pathresolver: failed to record conflict clear: %v", err)
				}
			}
		}
	}

	for pair := range r.activeConflicts {
		waiting[pair.b] = struct{}{}
	}

	for id := range waiting {
		if pose := poses[id]; pose != nil {
			resolved[id] = *pose
		}
	}
	return resolved
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
