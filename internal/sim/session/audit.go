package session

import (
	"cubecheck.ai/internal/sim/gen"
	"cubecheck.ai/internal/sim/grid"
)

const (
	ActionNewPuzzle = "NEW_PUZZLE"
	ActionAdd       = "ADD"
	ActionRemove    = "REMOVE"
	ActionCheck     = "CHECK"
)

// AuditEntry records one puzzle mutation or check. NEW_PUZZLE entries carry both structures
// in insertion order so a log can be replayed without the random source.
type AuditEntry struct {
	Session string   `json:"session"`
	Puzzle  uint64   `json:"puzzle"`
	Seq     uint64   `json:"seq"`
	Action  string   `json:"action"`
	Cell    *[3]int  `json:"cell,omitempty"`
	Target  [][3]int `json:"target,omitempty"`
	Player  [][3]int `json:"player,omitempty"`
	Solved  *bool    `json:"solved,omitempty"`
	Stalled bool     `json:"stalled,omitempty"`
}

type AuditLogger interface {
	WriteAudit(e AuditEntry) error
}

func (s *Session) nextEntry(action string) AuditEntry {
	s.seq++
	return AuditEntry{Session: s.ID, Puzzle: s.puzzle, Seq: s.seq, Action: action}
}

func (s *Session) auditPuzzle(res gen.Result) {
	e := s.nextEntry(ActionNewPuzzle)
	if s.audit == nil {
		return
	}
	e.Target = res.Target.Arrays()
	e.Player = res.Player.Arrays()
	e.Stalled = res.Stalled
	_ = s.audit.WriteAudit(e)
}

func (s *Session) auditCell(action string, c grid.Cell) {
	e := s.nextEntry(action)
	if s.audit == nil {
		return
	}
	a := c.Array()
	e.Cell = &a
	_ = s.audit.WriteAudit(e)
}

func (s *Session) auditCheck(solved bool) {
	e := s.nextEntry(ActionCheck)
	if s.audit == nil {
		return
	}
	e.Solved = &solved
	_ = s.audit.WriteAudit(e)
}
