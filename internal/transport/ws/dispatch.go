package ws

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"cubecheck.ai/internal/protocol"
	"cubecheck.ai/internal/sim/pick"
	"cubecheck.ai/internal/sim/session"
)

// dispatch validates one inbound message and applies it to the client's session. Replies are
// queued in order: OUTCOME or RESULT first, then STATE when anything visible changed.
func (s *Server) dispatch(c *client, raw []byte) {
	if err := s.validator.Validate(raw); err != nil {
		s.stats.rejected.Add(1)
		c.send(errorMsg(protocol.ErrProtoBadRequest, err.Error()))
		return
	}
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		c.send(errorMsg(protocol.ErrProtoBadRequest, err.Error()))
		return
	}
	if base.ProtocolVersion != protocol.Version {
		s.stats.rejected.Add(1)
		c.send(errorMsg(protocol.ErrProtoBadRequest, fmt.Sprintf("protocol_version %s not supported", base.ProtocolVersion)))
		return
	}

	ls := c.ls
	ls.mu.Lock()
	defer ls.mu.Unlock()

	switch base.Type {
	case protocol.TypeGesture:
		var m protocol.GestureMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			c.send(errorMsg(protocol.ErrProtoBadRequest, err.Error()))
			return
		}
		s.gesture(c, m)

	case protocol.TypeOrbit:
		var m protocol.OrbitMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			c.send(errorMsg(protocol.ErrProtoBadRequest, err.Error()))
			return
		}
		s.orbit(c, m)

	case protocol.TypeNewPuzzle:
		res := ls.sess.Reset(puzzleSource(ls.seed, ls.sess.Puzzle()+1))
		ls.resetHandles()
		s.stats.puzzles.Add(1)
		if res.Stalled && s.log != nil {
			s.log.Printf("session %s puzzle %d stalled at %d/%d cubes", ls.sess.ID, ls.sess.Puzzle(), res.Target.Len(), res.Requested)
		}
		c.send(stateMsg(ls))

	case protocol.TypeCheck:
		solved := ls.sess.Check()
		s.stats.checks.Add(1)
		if solved {
			s.stats.solved.Add(1)
			s.persistLocked(ls)
		}
		c.send(protocol.ResultMsg{
			Type:            protocol.TypeResult,
			ProtocolVersion: protocol.Version,
			Puzzle:          ls.sess.Puzzle(),
			Solved:          solved,
			Checks:          ls.sess.Checks(),
		})
		c.send(stateMsg(ls))

	default:
		s.stats.rejected.Add(1)
		c.send(errorMsg(protocol.ErrBadRequest, fmt.Sprintf("unexpected message type %s", base.Type)))
	}
}

func (s *Server) gesture(c *client, m protocol.GestureMsg) {
	ls := c.ls
	r, code, err := c.ray(m)
	if err != nil {
		s.stats.rejected.Add(1)
		c.send(errorMsg(code, err.Error()))
		return
	}
	s.stats.gestures.Add(1)

	out := protocol.OutcomeMsg{
		Type:            protocol.TypeOutcome,
		ProtocolVersion: protocol.Version,
		Kind:            m.Kind,
	}
	mods := session.Mods{Camera: m.Mods.Camera}

	switch m.Kind {
	case protocol.GestureHover:
		if h, ok := ls.sess.Hover(r); ok {
			out.Hit = hitRef(h)
		}
		out.Preview = ls.sess.Preview().Array()
		c.send(out)
		return

	case protocol.GesturePrimary:
		o := ls.sess.Primary(r, mods)
		if o.Added != nil {
			out.Added = &protocol.CubeRef{Cell: o.Added.Array(), Handle: ls.assign(*o.Added)}
		}

	case protocol.GestureSecondary:
		o := ls.sess.Secondary(r, mods)
		if o.Removed != nil {
			h, _ := ls.handles.Take(*o.Removed)
			out.Removed = &protocol.CubeRef{Cell: o.Removed.Array(), Handle: h}
		}

	default:
		c.send(errorMsg(protocol.ErrBadRequest, fmt.Sprintf("unknown gesture kind %s", m.Kind)))
		return
	}

	out.Preview = ls.sess.Preview().Array()
	c.send(out)
	if out.Added != nil || out.Removed != nil {
		s.stats.edits.Add(1)
		c.send(stateMsg(ls))
	}
}

// ray resolves a gesture to a pick ray: either given directly or projected from a cursor
// through the session camera.
func (c *client) ray(m protocol.GestureMsg) (pick.Ray, string, error) {
	switch {
	case m.Ray != nil:
		dir := mgl64.Vec3(m.Ray.Dir)
		if dir.Len() < pick.Epsilon {
			return pick.Ray{}, protocol.ErrBadRequest, fmt.Errorf("ray direction is zero")
		}
		return pick.NewRay(mgl64.Vec3(m.Ray.Origin), dir), "", nil

	case m.Cursor != nil:
		w, h := m.Cursor.W, m.Cursor.H
		if (w <= 0 || h <= 0) && c.viewport != nil {
			w, h = c.viewport.W, c.viewport.H
		}
		if w <= 0 || h <= 0 {
			return pick.Ray{}, protocol.ErrBadRequest, fmt.Errorf("cursor gesture without a viewport")
		}
		x, y := m.Cursor.X, m.Cursor.Y
		if x < 0 || y < 0 || x > w || y > h {
			return pick.Ray{}, protocol.ErrInvalidTarget, fmt.Errorf("cursor (%g,%g) outside viewport %gx%g", x, y, w, h)
		}
		r, ok := c.ls.sess.Camera().Ray(x, y, w, h)
		if !ok {
			return pick.Ray{}, protocol.ErrInvalidTarget, fmt.Errorf("camera cannot project cursor")
		}
		return r, "", nil
	}
	return pick.Ray{}, protocol.ErrBadRequest, fmt.Errorf("gesture needs ray or cursor")
}

func (s *Server) orbit(c *client, m protocol.OrbitMsg) {
	sess := c.ls.sess
	switch m.Phase {
	case protocol.OrbitBegin:
		sess.BeginOrbit(m.X, m.Y)
	case protocol.OrbitMove:
		if !sess.MoveOrbit(m.X, m.Y) {
			return
		}
	case protocol.OrbitEnd:
		sess.EndOrbit()
	default:
		c.send(errorMsg(protocol.ErrBadRequest, fmt.Sprintf("unknown orbit phase %s", m.Phase)))
		return
	}
	c.send(stateMsg(c.ls))
}

func hitRef(h pick.Hit) *protocol.HitRef {
	return &protocol.HitRef{
		Cell:   h.Cell.Array(),
		Point:  [3]float64(h.Point),
		T:      h.T,
		Face:   h.Face.String(),
		Ground: h.Ground,
	}
}

func errorMsg(code, msg string) protocol.ErrorMsg {
	return protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         msg,
	}
}
