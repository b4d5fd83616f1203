package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cubecheck.ai/internal/persistence/indexdb"
	"cubecheck.ai/internal/persistence/snapshot"
	"cubecheck.ai/internal/sim/session"
	"cubecheck.ai/internal/sim/tuning"
)

type runtimeIndex interface {
	session.AuditLogger
	Close() error
	Stats() indexdb.QueueStats
	UpsertTuning(tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SessionV1)
	RecordSolved(sessionID string, puzzle uint64, archivePath string)
}

func openRuntimeIndex(dataDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("CC_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(dataDir, "index", "cubecheck.sqlite")
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported CC_INDEX_BACKEND: %s", backend)
	}
}

// multiAuditLogger fans audit entries out to the JSONL log and the index.
type multiAuditLogger struct {
	a session.AuditLogger
	b session.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry session.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
