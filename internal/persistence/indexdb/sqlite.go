package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"cubecheck.ai/internal/persistence/snapshot"
	"cubecheck.ai/internal/sim/session"
	"cubecheck.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index of session activity. Writes are queued and applied
// by a single goroutine; the audit JSONL files remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropAudit    atomic.Uint64
	dropSnapshot atomic.Uint64
	dropSolved   atomic.Uint64
}

type reqKind int

const (
	reqAudit reqKind = iota + 1
	reqSnapshot
	reqSolved
)

type req struct {
	kind reqKind

	audit    session.AuditEntry
	snapshot snapshotRow
	solved   solvedRow
}

type snapshotRow struct {
	Session string
	Path    string
	Puzzle  uint64
	Seq     uint64
	Seed    int64
	Cubes   int
	Checks  int
	Solved  bool
	SavedAt int64
}

type solvedRow struct {
	Session    string
	Puzzle     uint64
	Path       string
	RecordedAt string
}

// QueueStats reports queue pressure and requests dropped because the writer fell behind.
type QueueStats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropAuditTotal    uint64 `json:"drop_audit_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
	DropSolvedTotal   uint64 `json:"drop_solved_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS configs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS puzzles (
			session TEXT NOT NULL,
			puzzle INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			target_cubes INTEGER NOT NULL,
			player_cubes INTEGER NOT NULL,
			stalled INTEGER NOT NULL,
			target_json TEXT NOT NULL,
			player_json TEXT NOT NULL,
			PRIMARY KEY (session, puzzle)
		);`,
		`CREATE TABLE IF NOT EXISTS moves (
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			puzzle INTEGER NOT NULL,
			action TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			PRIMARY KEY (session, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_moves_puzzle ON moves(session, puzzle);`,
		`CREATE TABLE IF NOT EXISTS checks (
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			puzzle INTEGER NOT NULL,
			solved INTEGER NOT NULL,
			PRIMARY KEY (session, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_checks_solved ON checks(solved);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			session TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			puzzle INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			cubes INTEGER NOT NULL,
			checks INTEGER NOT NULL,
			solved INTEGER NOT NULL,
			saved_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS solved (
			session TEXT NOT NULL,
			puzzle INTEGER NOT NULL,
			archive_path TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (session, puzzle)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() QueueStats {
	if s == nil {
		return QueueStats{}
	}
	return QueueStats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropAuditTotal:    s.dropAudit.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
		DropSolvedTotal:   s.dropSolved.Load(),
	}
}

func (s *SQLiteIndex) WriteAudit(entry session.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SessionV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Session: snap.Header.SessionID,
		Path:    path,
		Puzzle:  snap.Header.Puzzle,
		Seq:     snap.Header.Seq,
		Seed:    snap.Seed,
		Cubes:   len(snap.Player),
		Checks:  snap.Checks,
		Solved:  snap.Solved,
		SavedAt: snap.Header.SavedAt,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

func (s *SQLiteIndex) RecordSolved(sessionID string, puzzle uint64, archivePath string) {
	if s == nil || s.closed.Load() {
		return
	}
	if sessionID == "" || archivePath == "" {
		return
	}
	r := solvedRow{
		Session:    sessionID,
		Puzzle:     puzzle,
		Path:       archivePath,
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqSolved, solved: r}:
	default:
		s.dropSolved.Add(1)
	}
}

// UpsertTuning stores the tuning actually applied, keyed by its canonical JSON digest.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO configs(name,digest,json,updated_at) VALUES(?,?,?,?)`,
		"tuning", hex.EncodeToString(sum[:]), string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertPuzzle, _ := s.db.Prepare(`INSERT OR REPLACE INTO puzzles(session,puzzle,seq,target_cubes,player_cubes,stalled,target_json,player_json) VALUES(?,?,?,?,?,?,?,?)`)
	insertMove, _ := s.db.Prepare(`INSERT OR REPLACE INTO moves(session,seq,puzzle,action,x,y,z) VALUES(?,?,?,?,?,?,?)`)
	insertCheck, _ := s.db.Prepare(`INSERT OR REPLACE INTO checks(session,seq,puzzle,solved) VALUES(?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(session,path,puzzle,seq,seed,cubes,checks,solved,saved_at) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertSolved, _ := s.db.Prepare(`INSERT OR REPLACE INTO solved(session,puzzle,archive_path,recorded_at) VALUES(?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertPuzzle, insertMove, insertCheck, insertSnapshot, insertSolved} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil {
			return true
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqAudit:
			a := r.audit
			switch a.Action {
			case session.ActionNewPuzzle:
				tj, _ := json.Marshal(a.Target)
				pj, _ := json.Marshal(a.Player)
				if !exec(insertPuzzle, a.Session, int64(a.Puzzle), int64(a.Seq), len(a.Target), len(a.Player), boolInt(a.Stalled), string(tj), string(pj)) {
					continue
				}
			case session.ActionAdd, session.ActionRemove:
				if a.Cell == nil {
					continue
				}
				if !exec(insertMove, a.Session, int64(a.Seq), int64(a.Puzzle), a.Action, a.Cell[0], a.Cell[1], a.Cell[2]) {
					continue
				}
			case session.ActionCheck:
				solved := a.Solved != nil && *a.Solved
				if !exec(insertCheck, a.Session, int64(a.Seq), int64(a.Puzzle), boolInt(solved)) {
					continue
				}
			}

		case reqSnapshot:
			sn := r.snapshot
			if !exec(insertSnapshot, sn.Session, sn.Path, int64(sn.Puzzle), int64(sn.Seq), sn.Seed, sn.Cubes, sn.Checks, boolInt(sn.Solved), sn.SavedAt) {
				continue
			}

		case reqSolved:
			so := r.solved
			if !exec(insertSolved, so.Session, int64(so.Puzzle), so.Path, so.RecordedAt) {
				continue
			}
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
