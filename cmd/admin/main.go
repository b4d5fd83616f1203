package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cubecheck.ai/internal/persistence/snapshot"
	"cubecheck.ai/internal/sim/grid"
	"cubecheck.ai/internal/sim/solve"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "show":
			showCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints one line per persisted session, newest first.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	solvedOnly := fs.Bool("solved", false, "only list sessions whose last check solved the puzzle")
	_ = fs.Parse(args)

	headers, err := readHeaders(filepath.Join(*dataDir, "sessions"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, h := range headers {
		if *solvedOnly && !h.Solved {
			continue
		}
		fmt.Printf("%s puzzle=%d seq=%d solved=%v saved=%s\n",
			h.SessionID, h.Puzzle, h.Seq, h.Solved, time.Unix(h.SavedAt, 0).UTC().Format(time.RFC3339))
	}
}

func readHeaders(dir string) ([]snapshot.Header, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []snapshot.Header
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".snap.zst") {
			continue
		}
		h, err := snapshot.ReadHeader(filepath.Join(dir, e.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", e.Name(), err)
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SavedAt != out[j].SavedAt {
			return out[i].SavedAt > out[j].SavedAt
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out, nil
}

// showCmd prints a session snapshot and the silhouettes of both structures.
func showCmd(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	sessionID := fs.String("session", "", "session id (reads <data>/sessions/<id>.snap.zst)")
	snapPath := fs.String("snapshot", "", "snapshot path (overrides -session)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		if strings.TrimSpace(*sessionID) == "" {
			fmt.Fprintln(os.Stderr, "missing -session or -snapshot")
			os.Exit(2)
		}
		path = snapshot.Path(filepath.Join(*dataDir, "sessions"), *sessionID)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	printSnapshot(os.Stdout, snap)
}

func printSnapshot(w io.Writer, snap snapshot.SessionV1) {
	target := grid.FromArrays(snap.Target)
	player := grid.FromArrays(snap.Player)

	fmt.Fprintf(w, "session %s puzzle=%d seq=%d seed=%d checks=%d solved=%v\n",
		snap.Header.SessionID, snap.Header.Puzzle, snap.Header.Seq, snap.Seed, snap.Checks, snap.Solved)
	fmt.Fprintf(w, "target %d cubes: %v\n", target.Len(), target)
	fmt.Fprintf(w, "player %d cubes: %v\n", player.Len(), player)
	if len(snap.Removed) > 0 || len(snap.Decoys) > 0 {
		fmt.Fprintf(w, "removed %v decoys %v\n", snap.Removed, snap.Decoys)
	}
	fmt.Fprintf(w, "preview %v matches=%v\n\n", snap.Preview, solve.IsSolved(target, player))

	fmt.Fprintln(w, "target")
	fmt.Fprint(w, solve.Silhouettes(target).Render())
	fmt.Fprintln(w, "\nplayer")
	fmt.Fprint(w, solve.Silhouettes(player).Render())
}
