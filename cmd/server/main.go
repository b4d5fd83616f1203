package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cubecheck.ai/internal/persistence/archive"
	"cubecheck.ai/internal/persistence/mirror"
	persistlog "cubecheck.ai/internal/persistence/log"
	"cubecheck.ai/internal/persistence/snapshot"
	"cubecheck.ai/internal/sim/tuning"
	"cubecheck.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable indexing (audit + snapshot metadata)")
		noSnaps    = flag.Bool("disable_snapshots", false, "do not persist sessions (disables resume after restart)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	idx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index tuning: %v", err)
		}
	}

	auditLog := persistlog.NewAuditLogger(*dataDir)
	defer auditLog.Close()

	mir, err := openArchiveMirror(*dataDir, logger)
	if err != nil {
		logger.Fatalf("archive mirror: %v", err)
	}
	defer mir.Close()

	snapDir := filepath.Join(*dataDir, "sessions")
	if *noSnaps {
		snapDir = ""
	}

	onSnapshot := func(path string, snap snapshot.SessionV1) {
		if idx != nil {
			idx.RecordSnapshot(path, snap)
		}
		archivedPath, ok, err := archive.ArchiveSolvedSnapshot(*dataDir, path, snap)
		if err != nil {
			logger.Printf("archive solved snapshot: %v", err)
			return
		}
		if !ok {
			return
		}
		if idx != nil {
			idx.RecordSolved(snap.Header.SessionID, snap.Header.Puzzle, archivedPath)
		}
		mir.Enqueue(archivedPath, strings.TrimSuffix(archivedPath, ".snap.zst")+".meta.json")
	}

	var audit multiAuditLogger
	audit.a = auditLog
	if idx != nil {
		audit.b = idx
	}

	srvWS, err := ws.NewServer(ws.Options{
		Tuning:      tune,
		SnapshotDir: snapDir,
		Audit:       audit,
		OnSnapshot:  onSnapshot,
	}, logger)
	if err != nil {
		logger.Fatalf("ws server: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, srvWS.Stats(), idx)
		writeMirrorMetrics(rw, mir)
	})

	enableAdminHTTP := envBool("CC_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("CC_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				Stats    ws.Stats         `json:"stats"`
				Sessions []ws.SessionInfo `json:"sessions"`
				Tuning   tuning.Tuning    `json:"tuning"`
			}{
				Stats:    srvWS.Stats(),
				Sessions: srvWS.Sessions(),
				Tuning:   tune,
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
	} else {
		logger.Printf("admin endpoints disabled (CC_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", srvWS.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (puzzle %d-%d cubes, removals=%d decoys=%d)",
		*addr, tune.Puzzle.MinCubes, tune.Puzzle.MaxCubes, tune.Puzzle.Removals, tune.Puzzle.Decoys)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

// writeMetrics emits a minimal Prometheus exposition.
func writeMetrics(w io.Writer, st ws.Stats, idx runtimeIndex) {
	gauge := func(name, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		fmt.Fprintf(w, "%s %v\n", name, v)
	}
	counter := func(name, help string, v uint64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s %d\n", name, v)
	}

	gauge("cubecheck_connections", "Currently attached websocket connections.", st.Connections)
	gauge("cubecheck_sessions", "Live and parked sessions held in memory.", st.Sessions)
	counter("cubecheck_sessions_created_total", "Sessions created.", st.Created)
	counter("cubecheck_sessions_resumed_total", "Sessions resumed by token.", st.Resumed)
	counter("cubecheck_puzzles_total", "Puzzles generated.", st.Puzzles)
	counter("cubecheck_gestures_total", "Gestures applied.", st.Gestures)
	counter("cubecheck_edits_total", "Gestures that added or removed a cube.", st.Edits)
	counter("cubecheck_checks_total", "Solution checks.", st.Checks)
	counter("cubecheck_solved_total", "Checks that matched the target.", st.Solved)
	counter("cubecheck_rejected_total", "Messages rejected by validation.", st.Rejected)

	if idx == nil {
		return
	}
	q := idx.Stats()
	gauge("cubecheck_index_queue_depth", "Current index writer queue depth.", q.QueueDepth)
	gauge("cubecheck_index_queue_capacity", "Index writer queue capacity.", q.QueueCapacity)
	fmt.Fprintf(w, "# HELP cubecheck_index_dropped_total Index requests dropped because the writer fell behind.\n")
	fmt.Fprintf(w, "# TYPE cubecheck_index_dropped_total counter\n")
	fmt.Fprintf(w, "cubecheck_index_dropped_total{kind=%q} %d\n", "audit", q.DropAuditTotal)
	fmt.Fprintf(w, "cubecheck_index_dropped_total{kind=%q} %d\n", "snapshot", q.DropSnapshotTotal)
	fmt.Fprintf(w, "cubecheck_index_dropped_total{kind=%q} %d\n", "solved", q.DropSolvedTotal)
}

func writeMirrorMetrics(w io.Writer, m *mirror.Mirror) {
	if m == nil {
		return
	}
	st := m.Stats()
	fmt.Fprintf(w, "# HELP cubecheck_mirror_queue_depth Archive mirror queue depth.\n")
	fmt.Fprintf(w, "# TYPE cubecheck_mirror_queue_depth gauge\n")
	fmt.Fprintf(w, "cubecheck_mirror_queue_depth %d\n", st.QueueDepth)
	fmt.Fprintf(w, "# HELP cubecheck_mirror_files_total Archive files by upload outcome.\n")
	fmt.Fprintf(w, "# TYPE cubecheck_mirror_files_total counter\n")
	fmt.Fprintf(w, "cubecheck_mirror_files_total{result=%q} %d\n", "uploaded", st.UploadedTotal)
	fmt.Fprintf(w, "cubecheck_mirror_files_total{result=%q} %d\n", "failed", st.FailedTotal)
	fmt.Fprintf(w, "cubecheck_mirror_files_total{result=%q} %d\n", "dropped", st.DroppedTotal)
}
