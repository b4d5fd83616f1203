package snapshot

import (
	"os"
	"path/filepath"
	"testing"
)

func sample() SessionV1 {
	return SessionV1{
		Header:  Header{Version: Version, SessionID: "S1", Puzzle: 2, Seq: 7, SavedAt: 1700000000},
		Seed:    42,
		Target:  [][3]int{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		Player:  [][3]int{{1, 0, 0}, {1, 1, 0}, {1, 0, 1}},
		Removed: [][3]int{{0, 0, 0}},
		Decoys:  [][3]int{{1, 0, 1}},
		Preview: [3]int{1, 2, 0},
		Camera:  CameraV1{Theta: 3.1, Phi: 1.5, Radius: 10, Speed: 0.005, FovDeg: 60, Pivot: [3]float64{2, 3, 0}, LookAt: [3]float64{2, 0, 2}},
		Checks:  1,
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	path := Path(t.TempDir(), "S1")
	in := sample()
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}
	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if out.Header != in.Header || out.Seed != in.Seed || out.Preview != in.Preview || out.Camera != in.Camera {
		t.Fatalf("scalar mismatch: got %+v", out)
	}
	if len(out.Player) != len(in.Player) {
		t.Fatalf("player len: got %d want %d", len(out.Player), len(in.Player))
	}
	for i := range in.Player {
		if out.Player[i] != in.Player[i] {
			t.Fatalf("player[%d]: got %v want %v", i, out.Player[i], in.Player[i])
		}
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h != in.Header {
		t.Fatalf("header: got %+v want %+v", h, in.Header)
	}
}

func TestSnapshot_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v9.snap.zst")
	in := sample()
	in.Header.Version = 9
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestSnapshot_Missing(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSnapshot_RejectsOffGridCells(t *testing.T) {
	path := Path(t.TempDir(), "S1")
	in := sample()
	in.Player = append(in.Player, [3]int{1, 4, 0})
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected off-grid player cell to be rejected")
	}

	in = sample()
	in.Target[0] = [3]int{-1, 0, 0}
	if err := in.Validate(); err == nil {
		t.Fatalf("expected off-grid target cell to be rejected")
	}
	if err := sample().Validate(); err != nil {
		t.Fatalf("valid snapshot: %v", err)
	}
}
