package main

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	persistlog "cubecheck.ai/internal/persistence/log"
	"cubecheck.ai/internal/sim/grid"
	"cubecheck.ai/internal/sim/pick"
	"cubecheck.ai/internal/sim/session"
)

func down(x, z int) pick.Ray {
	return pick.NewRay(mgl64.Vec3{float64(x) + 0.5, 9, float64(z) + 0.5}, mgl64.Vec3{0, -1, 0})
}

func TestVerifier_ReplaysRecordedSession(t *testing.T) {
	dir := t.TempDir()
	audit := persistlog.NewAuditLogger(dir)
	s := session.New("s1", rand.New(rand.NewSource(7)), session.DefaultConfig(), audit)

	// Stack a cube on every column, then take one away again.
	for x := 0; x < grid.Size; x++ {
		for z := 0; z < grid.Size; z++ {
			s.Primary(down(x, z), session.Mods{})
		}
	}
	s.Secondary(down(1, 1), session.Mods{})
	s.Check()
	s.Reset(rand.New(rand.NewSource(8)))
	s.Check()
	if err := audit.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := persistlog.AuditFiles(dir)
	if err != nil || len(files) == 0 {
		t.Fatalf("AuditFiles: %v %v", files, err)
	}
	v := newVerifier("")
	for _, f := range files {
		if err := persistlog.ReadAudit(f, v.apply); err != nil {
			t.Fatalf("replay: %v", err)
		}
	}
	if v.puzzles != 2 || v.checks != 2 || v.moves == 0 {
		t.Fatalf("unexpected counts: puzzles=%d moves=%d checks=%d", v.puzzles, v.moves, v.checks)
	}

	snap := s.Snapshot(8, 0)
	if err := v.compare(snap); err != nil {
		t.Fatalf("compare: %v", err)
	}
}

func TestVerifier_RejectsTamperedLog(t *testing.T) {
	floating := [3]int{2, 2, 2}
	no := false
	yes := true
	origin := [3]int{0, 0, 0}

	cases := map[string][]session.AuditEntry{
		"illegal add": {
			{Session: "s", Puzzle: 1, Seq: 1, Action: session.ActionNewPuzzle, Target: [][3]int{{0, 0, 0}}},
			{Session: "s", Puzzle: 1, Seq: 2, Action: session.ActionAdd, Cell: &floating},
		},
		"seq gap": {
			{Session: "s", Puzzle: 1, Seq: 1, Action: session.ActionNewPuzzle, Target: [][3]int{{0, 0, 0}}},
			{Session: "s", Puzzle: 1, Seq: 3, Action: session.ActionCheck, Solved: &no},
		},
		"wrong check": {
			{Session: "s", Puzzle: 1, Seq: 1, Action: session.ActionNewPuzzle, Target: [][3]int{{0, 0, 0}}},
			{Session: "s", Puzzle: 1, Seq: 2, Action: session.ActionCheck, Solved: &yes},
		},
		"remove empty": {
			{Session: "s", Puzzle: 1, Seq: 1, Action: session.ActionNewPuzzle, Target: [][3]int{{0, 0, 0}}},
			{Session: "s", Puzzle: 1, Seq: 2, Action: session.ActionRemove, Cell: &origin},
		},
	}
	for name, entries := range cases {
		v := newVerifier("")
		var err error
		for _, e := range entries {
			if err = v.apply(e); err != nil {
				break
			}
		}
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !strings.Contains(err.Error(), "session s") {
			t.Fatalf("%s: error lacks context: %v", name, err)
		}
	}
}

func TestVerifier_SkipsUntilFirstPuzzle(t *testing.T) {
	v := newVerifier("")
	no := false
	if err := v.apply(session.AuditEntry{Session: "late", Puzzle: 3, Seq: 9, Action: session.ActionCheck, Solved: &no}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v.skipped != 1 || len(v.sessions) != 0 {
		t.Fatalf("expected skip: %+v", v)
	}
}
