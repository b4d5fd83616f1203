package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"cubecheck.ai/internal/sim/grid"
)

const Version = 1

type Header struct {
	Version   int    `json:"version"`
	SessionID string `json:"session_id"`
	Puzzle    uint64 `json:"puzzle"`
	Seq       uint64 `json:"seq"`
	Solved    bool   `json:"solved"`
	SavedAt   int64  `json:"saved_at"`
}

// SessionV1 is the durable form of one puzzle session. Cell lists keep insertion order.
type SessionV1 struct {
	Header Header `json:"header"`

	Seed        int64  `json:"seed"`
	ResumeToken string `json:"resume_token,omitempty"`

	Target  [][3]int `json:"target"`
	Player  [][3]int `json:"player"`
	Removed [][3]int `json:"removed,omitempty"`
	Decoys  [][3]int `json:"decoys,omitempty"`
	Preview [3]int   `json:"preview"`

	Camera CameraV1 `json:"camera"`

	Checks int  `json:"checks"`
	Solved bool `json:"solved"`
}

type CameraV1 struct {
	Theta  float64    `json:"theta"`
	Phi    float64    `json:"phi"`
	Radius float64    `json:"radius"`
	Speed  float64    `json:"speed"`
	FovDeg float64    `json:"fov_deg"`
	Pivot  [3]float64 `json:"pivot"`
	LookAt [3]float64 `json:"look_at"`
}

func WriteSnapshot(path string, snap SessionV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := writeFile(tmp, snap); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeFile(path string, snap SessionV1) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SessionV1, error) {
	var snap SessionV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// The header line is repeated inside the gob payload.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	if err := snap.Validate(); err != nil {
		return snap, err
	}
	return snap, nil
}

// Validate reports the first structure cell that lies outside the grid.
func (s SessionV1) Validate() error {
	lists := []struct {
		name  string
		cells [][3]int
	}{
		{"target", s.Target},
		{"player", s.Player},
		{"removed", s.Removed},
		{"decoys", s.Decoys},
	}
	for _, l := range lists {
		for _, a := range l.cells {
			if !grid.FromArray(a).InBounds() {
				return fmt.Errorf("%s cell %v outside the grid", l.name, a)
			}
		}
	}
	return nil
}

// ReadHeader decodes only the leading JSON line, for listings that do not need the payload.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}

// Path returns the snapshot location for a session under dir.
func Path(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+".snap.zst")
}
