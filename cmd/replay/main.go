package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	persistlog "cubecheck.ai/internal/persistence/log"
	"cubecheck.ai/internal/persistence/snapshot"
	"cubecheck.ai/internal/sim/grid"
	"cubecheck.ai/internal/sim/rules"
	"cubecheck.ai/internal/sim/session"
	"cubecheck.ai/internal/sim/solve"
)

func main() {
	var (
		dataDir   = flag.String("data", "./data", "runtime data directory (audit logs under <data>/audit)")
		sessionID = flag.String("session", "", "only replay this session (optional)")
		snapPath  = flag.String("snapshot", "", "compare the replayed end state with this session snapshot (optional)")
	)
	flag.Parse()

	files, err := persistlog.AuditFiles(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list audit files:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no audit files found in", filepath.Join(*dataDir, "audit"))
		os.Exit(1)
	}

	v := newVerifier(*sessionID)
	for _, path := range files {
		if err := persistlog.ReadAudit(path, v.apply); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("replay ok: sessions=%d puzzles=%d moves=%d checks=%d solved=%d skipped=%d\n",
		len(v.sessions), v.puzzles, v.moves, v.checks, v.solved, v.skipped)

	if *snapPath == "" {
		return
	}
	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	if err := v.compare(snap); err != nil {
		fmt.Fprintln(os.Stderr, "snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot ok: session=%s puzzle=%d seq=%d\n", snap.Header.SessionID, snap.Header.Puzzle, snap.Header.Seq)
}

type replayState struct {
	puzzle uint64
	seq    uint64
	target *grid.Structure
	player *grid.Structure
}

// verifier re-applies audit entries and checks every recorded move and check against the rules.
type verifier struct {
	only     string
	sessions map[string]*replayState

	puzzles, moves, checks, solved, skipped int
}

func newVerifier(only string) *verifier {
	return &verifier{only: only, sessions: map[string]*replayState{}}
}

func (v *verifier) apply(e session.AuditEntry) error {
	if v.only != "" && e.Session != v.only {
		return nil
	}
	st := v.sessions[e.Session]
	if e.Action == session.ActionNewPuzzle {
		if st != nil && e.Seq != st.seq+1 {
			return fmt.Errorf("session %s: seq gap %d -> %d", e.Session, st.seq, e.Seq)
		}
		v.sessions[e.Session] = &replayState{
			puzzle: e.Puzzle,
			seq:    e.Seq,
			target: grid.FromArrays(e.Target),
			player: grid.FromArrays(e.Player),
		}
		v.puzzles++
		return nil
	}
	if st == nil {
		// Log starts mid-session; wait for its next puzzle.
		v.skipped++
		return nil
	}
	if e.Seq != st.seq+1 {
		return fmt.Errorf("session %s: seq gap %d -> %d", e.Session, st.seq, e.Seq)
	}
	if e.Puzzle != st.puzzle {
		return fmt.Errorf("session %s seq %d: puzzle %d, want %d", e.Session, e.Seq, e.Puzzle, st.puzzle)
	}
	st.seq = e.Seq

	switch e.Action {
	case session.ActionAdd, session.ActionRemove:
		if e.Cell == nil {
			return fmt.Errorf("session %s seq %d: %s without cell", e.Session, e.Seq, e.Action)
		}
		c := grid.FromArray(*e.Cell)
		if e.Action == session.ActionAdd {
			if !rules.CanPlace(st.player, c, st.player, st.target) {
				return fmt.Errorf("session %s seq %d: illegal add at %v", e.Session, e.Seq, c)
			}
			st.player.Add(c)
		} else if !st.player.Remove(c) {
			return fmt.Errorf("session %s seq %d: remove of empty cell %v", e.Session, e.Seq, c)
		}
		v.moves++
	case session.ActionCheck:
		if e.Solved == nil {
			return fmt.Errorf("session %s seq %d: check without result", e.Session, e.Seq)
		}
		got := solve.IsSolved(st.target, st.player)
		if got != *e.Solved {
			return fmt.Errorf("session %s seq %d: check recorded %v, replay says %v", e.Session, e.Seq, *e.Solved, got)
		}
		v.checks++
		if got {
			v.solved++
		}
	default:
		return fmt.Errorf("session %s seq %d: unknown action %q", e.Session, e.Seq, e.Action)
	}
	return nil
}

// compare checks the replayed structures of snap's session against the snapshot.
func (v *verifier) compare(snap snapshot.SessionV1) error {
	st, ok := v.sessions[snap.Header.SessionID]
	if !ok {
		return fmt.Errorf("session %s not in audit logs", snap.Header.SessionID)
	}
	if st.seq < snap.Header.Seq {
		return fmt.Errorf("audit ends at seq %d, snapshot is at %d", st.seq, snap.Header.Seq)
	}
	if st.seq != snap.Header.Seq {
		return fmt.Errorf("audit continues past the snapshot (seq %d > %d)", st.seq, snap.Header.Seq)
	}
	if st.target.Bits() != grid.FromArrays(snap.Target).Bits() {
		return fmt.Errorf("target mismatch: replay %v snapshot %v", sortedCells(st.target), snap.Target)
	}
	if st.player.Bits() != grid.FromArrays(snap.Player).Bits() {
		return fmt.Errorf("player mismatch: replay %v snapshot %v", sortedCells(st.player), snap.Player)
	}
	return nil
}

func sortedCells(s *grid.Structure) [][3]int {
	out := s.Arrays()
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		if a[2] != b[2] {
			return a[2] < b[2]
		}
		return a[0] < b[0]
	})
	return out
}
