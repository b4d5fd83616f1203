package ws

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cubecheck.ai/internal/persistence/snapshot"
	"cubecheck.ai/internal/sim/gen"
	"cubecheck.ai/internal/sim/grid"
	"cubecheck.ai/internal/sim/session"
)

// liveSession wraps a session with the per-session state the transport needs. mu guards every
// field and the session itself; the attached connection holds it while applying a message.
type liveSession struct {
	mu sync.Mutex

	sess  *session.Session
	seed  int64
	token string

	handles    *grid.Registry[string]
	nextHandle uint64

	attached bool
	parkedAt time.Time
}

type SessionInfo struct {
	ID          string `json:"id"`
	Puzzle      uint64 `json:"puzzle"`
	Seq         uint64 `json:"seq"`
	TargetCubes int    `json:"target_cubes"`
	PlayerCubes int    `json:"player_cubes"`
	Checks      int    `json:"checks"`
	Solved      bool   `json:"solved"`
	Attached    bool   `json:"attached"`
}

type Stats struct {
	Connections int64  `json:"connections"`
	Sessions    int    `json:"sessions"`
	Created     uint64 `json:"created"`
	Resumed     uint64 `json:"resumed"`
	Puzzles     uint64 `json:"puzzles"`
	Gestures    uint64 `json:"gestures"`
	Edits       uint64 `json:"edits"`
	Checks      uint64 `json:"checks"`
	Solved      uint64 `json:"solved"`
	Rejected    uint64 `json:"rejected"`
}

// puzzleSource returns the random source for puzzle n of a session, so any puzzle can be
// regenerated from the session seed alone.
func puzzleSource(seed int64, n uint64) gen.Source {
	return rand.New(rand.NewSource(seed + int64(n)))
}

func (s *Server) create() *liveSession {
	id := uuid.NewString()
	seed := s.opts.Seed()
	ls := &liveSession{
		sess:     session.New(id, puzzleSource(seed, 1), s.cfg, s.opts.Audit),
		seed:     seed,
		token:    id + "." + uuid.NewString(),
		attached: true,
	}
	ls.resetHandles()

	s.mu.Lock()
	s.sweepLocked()
	s.sessions[id] = ls
	s.mu.Unlock()

	s.stats.sessions.Add(1)
	s.stats.puzzles.Add(1)
	return ls
}

// resume reattaches the session named by token: a parked in-memory session first, then the
// session's snapshot on disk. Expired, attached or mismatched sessions are not resumed.
func (s *Server) resume(token string) *liveSession {
	id, _, ok := strings.Cut(token, ".")
	if !ok {
		return nil
	}
	// Session IDs are UUIDs; anything else never reaches the snapshot directory.
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	now := s.opts.Now()

	s.mu.Lock()
	s.sweepLocked()
	if ls, ok := s.sessions[id]; ok {
		defer s.mu.Unlock()
		ls.mu.Lock()
		defer ls.mu.Unlock()
		if ls.token != token || ls.attached {
			return nil
		}
		ls.attached = true
		s.stats.resumed.Add(1)
		return ls
	}
	s.mu.Unlock()

	if s.opts.SnapshotDir == "" {
		return nil
	}
	snap, err := snapshot.ReadSnapshot(snapshot.Path(s.opts.SnapshotDir, id))
	if err != nil || snap.ResumeToken != token {
		return nil
	}
	if s.expired(time.Unix(snap.Header.SavedAt, 0), now) {
		return nil
	}
	ls := &liveSession{
		sess:     session.Restore(snap, s.cfg, s.opts.Audit),
		seed:     snap.Seed,
		token:    token,
		attached: true,
	}
	ls.resetHandles()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		// Lost a race with another resume of the same token.
		return nil
	}
	s.sessions[id] = ls
	s.stats.resumed.Add(1)
	return ls
}

// detach parks the session for later resume and snapshots it.
func (s *Server) detach(ls *liveSession) {
	ls.mu.Lock()
	ls.attached = false
	ls.parkedAt = s.opts.Now()
	s.persistLocked(ls)
	id := ls.sess.ID
	ls.mu.Unlock()

	if s.log != nil {
		s.log.Printf("session %s detached", id)
	}
}

func (s *Server) expired(at, now time.Time) bool {
	ttl := time.Duration(s.opts.Tuning.ResumeTTLSec) * time.Second
	return ttl > 0 && now.Sub(at) > ttl
}

func (s *Server) sweepLocked() {
	now := s.opts.Now()
	for id, ls := range s.sessions {
		ls.mu.Lock()
		drop := !ls.attached && s.expired(ls.parkedAt, now)
		ls.mu.Unlock()
		if drop {
			delete(s.sessions, id)
		}
	}
}

// persistLocked writes the session snapshot. ls.mu must be held.
func (s *Server) persistLocked(ls *liveSession) {
	if s.opts.SnapshotDir == "" {
		return
	}
	snap := ls.sess.Snapshot(ls.seed, s.opts.Now().Unix())
	snap.ResumeToken = ls.token
	path := snapshot.Path(s.opts.SnapshotDir, ls.sess.ID)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		if s.log != nil {
			s.log.Printf("snapshot write: %v", err)
		}
		return
	}
	if s.opts.OnSnapshot != nil {
		s.opts.OnSnapshot(path, snap)
	}
}

// resetHandles numbers every player cube again from c1. ls.mu must be held or ls unshared.
func (ls *liveSession) resetHandles() {
	ls.handles = grid.NewRegistry[string]()
	ls.nextHandle = 0
	for _, c := range ls.sess.Player().Cells() {
		ls.assign(c)
	}
}

func (ls *liveSession) assign(c grid.Cell) string {
	ls.nextHandle++
	h := fmt.Sprintf("c%d", ls.nextHandle)
	ls.handles.Put(c, h)
	return h
}

func (s *Server) Stats() Stats {
	s.mu.Lock()
	n := len(s.sessions)
	s.mu.Unlock()
	return Stats{
		Connections: s.stats.connections.Load(),
		Sessions:    n,
		Created:     s.stats.sessions.Load(),
		Resumed:     s.stats.resumed.Load(),
		Puzzles:     s.stats.puzzles.Load(),
		Gestures:    s.stats.gestures.Load(),
		Edits:       s.stats.edits.Load(),
		Checks:      s.stats.checks.Load(),
		Solved:      s.stats.solved.Load(),
		Rejected:    s.stats.rejected.Load(),
	}
}

// Sessions lists live and parked sessions ordered by ID.
func (s *Server) Sessions() []SessionInfo {
	s.mu.Lock()
	all := make([]*liveSession, 0, len(s.sessions))
	for _, ls := range s.sessions {
		all = append(all, ls)
	}
	s.mu.Unlock()

	out := make([]SessionInfo, 0, len(all))
	for _, ls := range all {
		ls.mu.Lock()
		out = append(out, SessionInfo{
			ID:          ls.sess.ID,
			Puzzle:      ls.sess.Puzzle(),
			Seq:         ls.sess.Seq(),
			TargetCubes: ls.sess.Generation().Target.Len(),
			PlayerCubes: ls.handles.Len(),
			Checks:      ls.sess.Checks(),
			Solved:      ls.sess.Solved(),
			Attached:    ls.attached,
		})
		ls.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
