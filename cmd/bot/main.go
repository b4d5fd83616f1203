package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"cubecheck.ai/internal/protocol"
	"cubecheck.ai/internal/sim/encoding"
	"cubecheck.ai/internal/sim/grid"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "client name")
		resume = flag.String("resume", "", "resume token from an earlier run (optional)")
		every  = flag.Duration("every", 500*time.Millisecond, "delay between actions")
		seed   = flag.Int64("seed", 0, "rng seed (0 = time based)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		ResumeToken:     *resume,
		Viewport:        &protocol.Viewport{W: 800, H: 600},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	b := &bot{rng: rand.New(rand.NewSource(*seed))}

	msgs := make(chan []byte, 16)
	go func() {
		defer close(msgs)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msgs <- msg
		}
	}()

	tick := time.NewTicker(*every)
	defer tick.Stop()
	for {
		select {
		case <-stop:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			b.handle(logger, msg)
		case <-tick.C:
			if act := b.next(); act != nil {
				if err := conn.WriteJSON(act); err != nil {
					logger.Printf("send: %v", err)
					return
				}
			}
		}
	}
}

// bot stacks and clears random columns and checks its work every few moves.
type bot struct {
	rng   *rand.Rand
	state *protocol.StateMsg
	steps int
}

func (b *bot) handle(logger *log.Logger, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var w protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &w); err != nil {
			return
		}
		logger.Printf("WELCOME session=%s resumed=%v resume_token=%s", w.SessionID, w.Resumed, w.ResumeToken)
	case protocol.TypeState:
		var st protocol.StateMsg
		if err := json.Unmarshal(msg, &st); err != nil {
			return
		}
		b.state = &st
	case protocol.TypeResult:
		var r protocol.ResultMsg
		if err := json.Unmarshal(msg, &r); err != nil {
			return
		}
		logger.Printf("RESULT puzzle=%d solved=%v checks=%d", r.Puzzle, r.Solved, r.Checks)
	case protocol.TypeError:
		var e protocol.ErrorMsg
		if err := json.Unmarshal(msg, &e); err != nil {
			return
		}
		logger.Printf("ERROR %s: %s", e.Code, e.Message)
	}
}

// next picks the following message, or nil while no STATE has arrived.
func (b *bot) next() any {
	st := b.state
	if st == nil {
		return nil
	}
	b.steps++
	switch {
	case st.Solved || b.steps%60 == 0:
		b.state = nil
		return protocol.NewPuzzleMsg{Type: protocol.TypeNewPuzzle, ProtocolVersion: protocol.Version}
	case b.steps%10 == 0:
		return protocol.CheckMsg{Type: protocol.TypeCheck, ProtocolVersion: protocol.Version}
	}

	player, _, err := encoding.DecodeOccupancy(st.Occupancy)
	if err != nil {
		return nil
	}
	kind := protocol.GesturePrimary
	if player.Len() >= st.TargetSize && b.rng.Intn(2) == 0 {
		kind = protocol.GestureSecondary
	}
	cols := columns(player, kind == protocol.GestureSecondary)
	if len(cols) == 0 {
		return protocol.CheckMsg{Type: protocol.TypeCheck, ProtocolVersion: protocol.Version}
	}
	col := cols[b.rng.Intn(len(cols))]
	x, z := col[0], col[1]
	return protocol.GestureMsg{
		Type:            protocol.TypeGesture,
		ProtocolVersion: protocol.Version,
		Kind:            kind,
		Ray: &protocol.RayReq{
			Origin: [3]float64{float64(x) + 0.5, float64(grid.Size) + 5, float64(z) + 0.5},
			Dir:    [3]float64{0, -1, 0},
		},
	}
}

// columns lists the (x, z) columns holding a cube when occupied is set, or with room on top
// otherwise.
func columns(player *grid.Structure, occupied bool) [][2]int {
	var out [][2]int
	for x := 0; x < grid.Size; x++ {
		for z := 0; z < grid.Size; z++ {
			has := false
			for y := 0; y < grid.Size; y++ {
				has = has || player.Contains(grid.C(x, y, z))
			}
			full := player.Contains(grid.C(x, grid.Size-1, z))
			if (occupied && has) || (!occupied && !full) {
				out = append(out, [2]int{x, z})
			}
		}
	}
	return out
}
