// Package session owns one live puzzle: its target and player structures, the orbit camera and
// the placement preview. A Session is not safe for concurrent use; each one belongs to a single
// goroutine, and any number of sessions may coexist.
package session

import (
	"github.com/go-gl/mathgl/mgl64"

	"cubecheck.ai/internal/persistence/snapshot"
	"cubecheck.ai/internal/sim/camera"
	"cubecheck.ai/internal/sim/gen"
	"cubecheck.ai/internal/sim/grid"
	"cubecheck.ai/internal/sim/pick"
	"cubecheck.ai/internal/sim/rules"
	"cubecheck.ai/internal/sim/solve"
)

type Config struct {
	Gen        gen.Config
	Camera     camera.Orbit
	HitHistory int
}

func DefaultConfig() Config {
	return Config{
		Gen:        gen.DefaultConfig(),
		Camera:     camera.Default(),
		HitHistory: 10,
	}
}

// Mods carries the modifier state of a gesture. Camera reserves the gesture for camera control.
type Mods struct {
	Camera bool `json:"camera,omitempty"`
}

// Outcome reports what an edit gesture changed. Both fields are nil for a no-op.
type Outcome struct {
	Added   *grid.Cell `json:"added,omitempty"`
	Removed *grid.Cell `json:"removed,omitempty"`
}

func (o Outcome) Changed() bool { return o.Added != nil || o.Removed != nil }

type Session struct {
	ID  string
	cfg Config

	target *grid.Structure
	player *grid.Structure
	gen    gen.Result

	orbit    camera.Orbit
	orbiting bool
	lastX    float64
	lastY    float64

	preview grid.Cell
	hits    []mgl64.Vec3

	puzzle uint64
	seq    uint64
	checks int
	solved bool

	audit AuditLogger
}

// New creates a session and generates its first puzzle. audit may be nil.
func New(id string, rng gen.Source, cfg Config, audit AuditLogger) *Session {
	s := &Session{ID: id, cfg: cfg, orbit: cfg.Camera, audit: audit}
	s.Reset(rng)
	return s
}

func (s *Session) SetAuditLogger(l AuditLogger) { s.audit = l }

// Reset discards the current puzzle and all transient state, then generates a new one.
// The camera keeps its orientation.
func (s *Session) Reset(rng gen.Source) gen.Result {
	res := gen.Generate(rng, s.cfg.Gen)
	s.gen = res
	s.target = res.Target
	s.player = res.Player.Clone()
	s.orbiting = false
	s.hits = s.hits[:0]
	s.checks = 0
	s.solved = false
	s.puzzle++

	s.preview = grid.Cell{}
	if cells := s.player.Cells(); len(cells) > 0 {
		s.preview = cells[len(cells)-1].Above()
	}
	s.auditPuzzle(res)
	return res
}

// BeginOrbit enters camera-orbit mode at pointer position (x, y).
func (s *Session) BeginOrbit(x, y float64) {
	s.orbiting = true
	s.lastX, s.lastY = x, y
}

// MoveOrbit rotates the camera by the pointer delta. It is ignored outside orbit mode.
func (s *Session) MoveOrbit(x, y float64) bool {
	if !s.orbiting {
		return false
	}
	s.orbit.Rotate(x-s.lastX, y-s.lastY)
	s.lastX, s.lastY = x, y
	return true
}

func (s *Session) EndOrbit() { s.orbiting = false }

// canPlace is the live-play placement rule: occupancy from the player structure, support from
// player or target.
func (s *Session) canPlace(c grid.Cell) bool {
	return rules.CanPlace(s.player, c, s.player, s.target)
}

// Hover moves the preview to the current placement candidate without touching the grid.
func (s *Session) Hover(r pick.Ray) (pick.Hit, bool) {
	h, ok := pick.Place(r, s.player, s.canPlace)
	if !ok {
		return h, false
	}
	s.preview = h.Cell
	s.recordHit(h.Point)
	return h, true
}

// Primary adds a cube at the placement candidate under r.
func (s *Session) Primary(r pick.Ray, mods Mods) Outcome {
	if mods.Camera || s.orbiting {
		return Outcome{}
	}
	h, ok := pick.Place(r, s.player, s.canPlace)
	if !ok || !s.canPlace(h.Cell) {
		return Outcome{}
	}
	c := h.Cell
	s.player.Add(c)
	s.preview = c.Above()
	s.recordHit(h.Point)
	s.auditCell(ActionAdd, c)
	return Outcome{Added: &c}
}

// Secondary removes the player cube hit by r. Cubes resting on it stay where they are.
func (s *Session) Secondary(r pick.Ray, mods Mods) Outcome {
	if mods.Camera || s.orbiting {
		return Outcome{}
	}
	h, ok := pick.Remove(r, s.player)
	if !ok {
		return Outcome{}
	}
	c := h.Cell
	s.player.Remove(c)
	s.preview = s.previewAfterRemove(c)
	s.recordHit(h.Point)
	s.auditCell(ActionRemove, c)
	return Outcome{Removed: &c}
}

func (s *Session) previewAfterRemove(c grid.Cell) grid.Cell {
	if below := c.Below(); below.InBounds() && !s.player.Contains(below) {
		return below
	}
	for _, p := range s.player.Cells() {
		if s.canPlace(p.Above()) {
			return p.Above()
		}
	}
	return grid.Cell{}
}

// Check grades the player structure against the target. It never mutates either.
func (s *Session) Check() bool {
	ok := solve.IsSolved(s.target, s.player)
	s.checks++
	s.solved = ok
	s.auditCheck(ok)
	return ok
}

func (s *Session) Silhouettes() solve.Views { return solve.Silhouettes(s.target) }

func (s *Session) recordHit(p mgl64.Vec3) {
	max := s.cfg.HitHistory
	if max <= 0 {
		return
	}
	if len(s.hits) >= max {
		copy(s.hits, s.hits[len(s.hits)-max+1:])
		s.hits = s.hits[:max-1]
	}
	s.hits = append(s.hits, p)
}

// Target and Player return copies; edits go through gestures.
func (s *Session) Target() *grid.Structure { return s.target.Clone() }
func (s *Session) Player() *grid.Structure { return s.player.Clone() }

func (s *Session) Generation() gen.Result { return s.gen }
func (s *Session) Camera() camera.Orbit    { return s.orbit }
func (s *Session) Orbiting() bool          { return s.orbiting }
func (s *Session) Preview() grid.Cell      { return s.preview }
func (s *Session) Puzzle() uint64          { return s.puzzle }
func (s *Session) Seq() uint64             { return s.seq }
func (s *Session) Checks() int             { return s.checks }
func (s *Session) Solved() bool            { return s.solved }

func (s *Session) Hits() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(s.hits))
	copy(out, s.hits)
	return out
}

// Snapshot exports the durable state of the session.
func (s *Session) Snapshot(seed int64, savedAt int64) snapshot.SessionV1 {
	return snapshot.SessionV1{
		Header: snapshot.Header{
			Version:   snapshot.Version,
			SessionID: s.ID,
			Puzzle:    s.puzzle,
			Seq:       s.seq,
			Solved:    s.solved,
			SavedAt:   savedAt,
		},
		Seed:    seed,
		Target:  s.target.Arrays(),
		Player:  s.player.Arrays(),
		Removed: cellArrays(s.gen.Removed),
		Decoys:  cellArrays(s.gen.Decoys),
		Preview: s.preview.Array(),
		Camera: snapshot.CameraV1{
			Theta:  s.orbit.Theta,
			Phi:    s.orbit.Phi,
			Radius: s.orbit.Radius,
			Speed:  s.orbit.Speed,
			FovDeg: s.orbit.FovDeg,
			Pivot:  s.orbit.Pivot,
			LookAt: s.orbit.LookAt,
		},
		Checks: s.checks,
		Solved: s.solved,
	}
}

// restoreOrbit keeps only the viewing angles of a saved camera; lens, radius, speed and
// pivots follow the current configuration.
func restoreOrbit(cfg camera.Orbit, saved snapshot.CameraV1) camera.Orbit {
	o := cfg
	if saved == (snapshot.CameraV1{}) {
		return o
	}
	o.Theta = saved.Theta
	o.Phi = mgl64.Clamp(saved.Phi, camera.MinPhi, camera.MaxPhi)
	return o
}

// Restore rebuilds a session from a snapshot. Orbit mode and hit history start empty.
func Restore(snap snapshot.SessionV1, cfg Config, audit AuditLogger) *Session {
	target := grid.FromArrays(snap.Target)
	s := &Session{
		ID:     snap.Header.SessionID,
		cfg:    cfg,
		target: target,
		player: grid.FromArrays(snap.Player),
		gen: gen.Result{
			Target:    target,
			Requested: target.Len(),
			Removed:   arrayCells(snap.Removed),
			Decoys:    arrayCells(snap.Decoys),
		},
		orbit:   restoreOrbit(cfg.Camera, snap.Camera),
		preview: grid.FromArray(snap.Preview),
		puzzle:  snap.Header.Puzzle,
		seq:     snap.Header.Seq,
		checks:  snap.Checks,
		solved:  snap.Solved,
		audit:   audit,
	}
	initial := target.Clone()
	for _, c := range s.gen.Removed {
		initial.Remove(c)
	}
	for _, c := range s.gen.Decoys {
		initial.Add(c)
	}
	s.gen.Player = initial
	return s
}

func cellArrays(cells []grid.Cell) [][3]int {
	out := make([][3]int, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.Array())
	}
	return out
}

func arrayCells(in [][3]int) []grid.Cell {
	out := make([]grid.Cell, 0, len(in))
	for _, a := range in {
		out = append(out, grid.FromArray(a))
	}
	return out
}
