package ws

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"cubecheck.ai/internal/persistence/snapshot"
	"cubecheck.ai/internal/protocol"
	"cubecheck.ai/internal/sim/session"
	"cubecheck.ai/internal/sim/tuning"
)

type Options struct {
	Tuning tuning.Tuning

	// SnapshotDir holds one snapshot per session. Empty disables persistence and disk resume.
	SnapshotDir string

	Audit session.AuditLogger

	// OnSnapshot runs after a snapshot is written (index, archive).
	OnSnapshot func(path string, snap snapshot.SessionV1)

	Now  func() time.Time
	Seed func() int64
}

type Server struct {
	opts      Options
	cfg       session.Config
	log       *log.Logger
	validator *protocol.Validator

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*liveSession

	stats counters
}

type counters struct {
	connections atomic.Int64
	sessions    atomic.Uint64
	resumed     atomic.Uint64
	puzzles     atomic.Uint64
	gestures    atomic.Uint64
	edits       atomic.Uint64
	checks      atomic.Uint64
	solved      atomic.Uint64
	rejected    atomic.Uint64
}

func NewServer(opts Options, logger *log.Logger) (*Server, error) {
	if err := opts.Tuning.Validate(); err != nil {
		return nil, err
	}
	v, err := protocol.NewValidator()
	if err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Seed == nil {
		src := rand.New(rand.NewSource(time.Now().UnixNano()))
		var mu sync.Mutex
		opts.Seed = func() int64 {
			mu.Lock()
			defer mu.Unlock()
			return src.Int63()
		}
	}
	s := &Server{
		opts:      opts,
		cfg:       opts.Tuning.SessionConfig(),
		log:       logger,
		validator: v,
		sessions:  map[string]*liveSession{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s, nil
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := s.handshake(conn)
		if c == nil {
			return
		}
		s.stats.connections.Add(1)
		defer s.stats.connections.Add(-1)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		c.ctx = ctx

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-c.out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			s.dispatch(c, msg)
		}

		s.detach(c.ls)
	}
}

func (s *Server) handshake(conn *websocket.Conn) *client {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}
	if base.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	if err := s.validator.Validate(msg); err != nil {
		_ = writeJSON(conn, errorMsg(protocol.ErrProtoBadRequest, err.Error()))
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}

	var ls *liveSession
	resumed := false
	if tok := strings.TrimSpace(hello.ResumeToken); tok != "" {
		ls = s.resume(tok)
		resumed = ls != nil
	}
	if ls == nil {
		ls = s.create()
	}

	c := &client{
		srv:      s,
		ls:       ls,
		name:     hello.ClientName,
		viewport: hello.Viewport,
		out:      make(chan []byte, 32),
	}

	ls.mu.Lock()
	welcome := s.welcomeMsg(ls, resumed)
	state := stateMsg(ls)
	ls.mu.Unlock()

	if err := writeJSON(conn, welcome); err != nil {
		s.detach(ls)
		return nil
	}
	if err := writeJSON(conn, state); err != nil {
		s.detach(ls)
		return nil
	}
	if s.log != nil {
		s.log.Printf("session %s attached (client=%q resumed=%v)", ls.sess.ID, c.name, resumed)
	}
	return c
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// client is one attached connection. Messages for it are queued on out and written by the
// connection's writer goroutine.
type client struct {
	srv      *Server
	ls       *liveSession
	name     string
	viewport *protocol.Viewport

	ctx context.Context
	out chan []byte
}

func (c *client) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.out <- b:
	case <-c.ctx.Done():
	}
}
