package main

import (
	"bytes"
	"strings"
	"testing"

	"cubecheck.ai/internal/persistence/snapshot"
)

func TestReadHeaders_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	for i, id := range []string{"old", "new"} {
		snap := snapshot.SessionV1{
			Header: snapshot.Header{Version: snapshot.Version, SessionID: id, Puzzle: 1, SavedAt: int64(100 + i)},
			Target: [][3]int{{0, 0, 0}},
		}
		if err := snapshot.WriteSnapshot(snapshot.Path(dir, id), snap); err != nil {
			t.Fatalf("WriteSnapshot: %v", err)
		}
	}
	hs, err := readHeaders(dir)
	if err != nil {
		t.Fatalf("readHeaders: %v", err)
	}
	if len(hs) != 2 || hs[0].SessionID != "new" || hs[1].SessionID != "old" {
		t.Fatalf("unexpected order: %+v", hs)
	}
}

func TestPrintSnapshot(t *testing.T) {
	snap := snapshot.SessionV1{
		Header: snapshot.Header{Version: snapshot.Version, SessionID: "s1", Puzzle: 2, Seq: 5},
		Seed:   9,
		Target: [][3]int{{0, 0, 0}, {0, 1, 0}},
		Player: [][3]int{{3, 0, 3}, {3, 1, 3}},
	}
	var buf bytes.Buffer
	printSnapshot(&buf, snap)
	out := buf.String()
	for _, want := range []string{"session s1 puzzle=2 seq=5 seed=9", "target 2 cubes", "matches=true", "\nplayer\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPrintState(t *testing.T) {
	body := []byte(`{"stats":{"connections":1,"sessions":2,"checks":3,"solved":1},
"sessions":[{"id":"a","puzzle":2,"seq":9,"target_cubes":4,"player_cubes":3,"checks":1,"solved":false,"attached":true},
{"id":"b","puzzle":1,"seq":1,"target_cubes":3,"player_cubes":3,"checks":2,"solved":true,"attached":false}],
"tuning":{}}`)
	var buf bytes.Buffer
	if err := printState(&buf, body); err != nil {
		t.Fatalf("printState: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("want stats, header and two rows, got:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[0], "connections=1 sessions=2") {
		t.Fatalf("stats line: %s", lines[0])
	}
	if f := strings.Fields(lines[3]); len(f) != 8 || f[0] != "b" || f[6] != "true" || f[7] != "false" {
		t.Fatalf("row: %q", lines[3])
	}
	if err := printState(&buf, []byte("not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}
