package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"cubecheck.ai/internal/sim/grid"
)

// Cell states carried in an occupancy stream.
const (
	Empty   uint8 = 0
	Cube    uint8 = 1
	Preview uint8 = 2
)

// Occupancy lays the grid out in grid index order (x + 4z + 16y), marking player cubes and the
// preview cell. A preview on an occupied or off-grid cell is dropped.
func Occupancy(player *grid.Structure, preview *grid.Cell) [grid.Cells]uint8 {
	var out [grid.Cells]uint8
	for _, c := range player.Cells() {
		if idx, ok := c.Index(); ok {
			out[idx] = Cube
		}
	}
	if preview != nil {
		if idx, ok := preview.Index(); ok && out[idx] == Empty {
			out[idx] = Preview
		}
	}
	return out
}

// EncodeRLE encodes a state stream as base64 of (state, run_len) uvarint pairs.
func EncodeRLE(states []uint8) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(states); {
		v := states[i]
		run := 1
		for i+run < len(states) && states[i+run] == v {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(v))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func DecodeRLE(b64 string) ([]uint8, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint8
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if v > 0xFF {
			return nil, fmt.Errorf("state too large: %d", v)
		}
		if run == 0 || run > grid.Cells-uint64(len(out)) {
			return nil, fmt.Errorf("run length %d overflows grid", run)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint8(v))
		}
	}
	return out, nil
}

func EncodeOccupancy(player *grid.Structure, preview *grid.Cell) string {
	occ := Occupancy(player, preview)
	return EncodeRLE(occ[:])
}

// DecodeOccupancy rebuilds the player structure (index order) and the preview cell, if any.
func DecodeOccupancy(b64 string) (*grid.Structure, *grid.Cell, error) {
	states, err := DecodeRLE(b64)
	if err != nil {
		return nil, nil, err
	}
	if len(states) != grid.Cells {
		return nil, nil, fmt.Errorf("occupancy has %d cells, want %d", len(states), grid.Cells)
	}
	s := grid.NewStructure()
	var preview *grid.Cell
	for idx, v := range states {
		switch v {
		case Empty:
		case Cube:
			s.Add(grid.FromIndex(idx))
		case Preview:
			c := grid.FromIndex(idx)
			preview = &c
		default:
			return nil, nil, fmt.Errorf("unknown cell state %d at %d", v, idx)
		}
	}
	return s, preview, nil
}
