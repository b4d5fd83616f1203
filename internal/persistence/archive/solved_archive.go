package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cubecheck.ai/internal/persistence/snapshot"
	"cubecheck.ai/internal/sim/grid"
	"cubecheck.ai/internal/sim/solve"
)

type SolvedArchiveMeta struct {
	Session   string `json:"session"`
	Puzzle    uint64 `json:"puzzle"`
	Seed      int64  `json:"seed"`
	Cubes     int    `json:"cubes"`
	Checks    int    `json:"checks"`
	Snapshot  string `json:"snapshot"`
	CreatedAt string `json:"created_at"`
	Views     string `json:"views"`
}

// ArchiveSolvedSnapshot copies the snapshot of a solved puzzle into
// `dataDir/archives/solved/<session>/<puzzle>.snap.zst` next to a meta.json. Unsolved snapshots
// are skipped and report archived=false.
func ArchiveSolvedSnapshot(dataDir, snapshotPath string, snap snapshot.SessionV1) (archivedPath string, archived bool, err error) {
	if !snap.Solved || snap.Header.SessionID == "" {
		return "", false, nil
	}

	archiveDir := filepath.Join(dataDir, "archives", "solved", snap.Header.SessionID)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, fmt.Sprintf("%d.snap.zst", snap.Header.Puzzle))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := SolvedArchiveMeta{
		Session:   snap.Header.SessionID,
		Puzzle:    snap.Header.Puzzle,
		Seed:      snap.Seed,
		Cubes:     len(snap.Target),
		Checks:    snap.Checks,
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Views:     solve.Silhouettes(grid.FromArrays(snap.Target)).Render(),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, fmt.Sprintf("%d.meta.json", snap.Header.Puzzle)), b, 0o644)
	}

	return dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}
