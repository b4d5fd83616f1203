package ws

import (
	"cubecheck.ai/internal/protocol"
	"cubecheck.ai/internal/sim/encoding"
	"cubecheck.ai/internal/sim/grid"
	"cubecheck.ai/internal/sim/pick"
)

func (s *Server) welcomeMsg(ls *liveSession, resumed bool) protocol.WelcomeMsg {
	g := s.cfg.Gen
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       ls.sess.ID,
		ResumeToken:     ls.token,
		Resumed:         resumed,
		PuzzleParams: protocol.PuzzleParams{
			GridSize:   grid.Size,
			MinCubes:   g.MinCubes,
			MaxCubes:   g.MaxCubes,
			Removals:   g.Removals,
			Decoys:     g.Decoys,
			Tolerance:  pick.Tolerance,
			HitHistory: s.cfg.HitHistory,
		},
	}
}

// stateMsg renders the full client view of a session. ls.mu must be held.
func stateMsg(ls *liveSession) protocol.StateMsg {
	sess := ls.sess
	player := sess.Player()

	cubes := make([]protocol.CubeRef, 0, player.Len())
	for _, c := range player.Cells() {
		h, ok := ls.handles.Get(c)
		if !ok {
			h = ls.assign(c)
		}
		cubes = append(cubes, protocol.CubeRef{Cell: c.Array(), Handle: h})
	}

	preview := sess.Preview()
	views := sess.Silhouettes()
	cam := sess.Camera()

	var hits [][3]float64
	for _, p := range sess.Hits() {
		hits = append(hits, [3]float64(p))
	}

	return protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.ID,
		Puzzle:          sess.Puzzle(),
		Seq:             sess.Seq(),
		TargetSize:      sess.Generation().Target.Len(),
		Cubes:           cubes,
		Occupancy:       encoding.EncodeOccupancy(player, &preview),
		Preview:         preview.Array(),
		Silhouettes: protocol.Silhouettes{
			Top:   views.Top,
			Front: views.Front,
			Left:  views.Left,
		},
		Camera: protocol.CameraState{
			Theta:         cam.Theta,
			Phi:           cam.Phi,
			Radius:        cam.Radius,
			FovDeg:        cam.FovDeg,
			Position:      [3]float64(cam.Position()),
			LookDirection: [3]float64(cam.LookDirection()),
		},
		Orbiting: sess.Orbiting(),
		Hits:     hits,
		Checks:   sess.Checks(),
		Solved:   sess.Solved(),
	}
}
