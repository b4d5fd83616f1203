package mirror

import (
	"context"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	UploadedTotal uint64
	FailedTotal   uint64
	DroppedTotal  uint64
}

// Uploader is the part of Client the mirror needs.
type Uploader interface {
	PutFile(ctx context.Context, key, localPath string) error
}

// Mirror copies files below dataDir to object storage from a small worker pool.
// Keys keep the path relative to dataDir, under prefix.
type Mirror struct {
	up      Uploader
	dataDir string
	prefix  string
	logger  *log.Logger
	backoff time.Duration

	jobs chan string
	wg   sync.WaitGroup

	uploaded atomic.Uint64
	failed   atomic.Uint64
	dropped  atomic.Uint64
}

func New(up Uploader, dataDir, prefix string, workers int, logger *log.Logger) *Mirror {
	if workers <= 0 {
		workers = 1
	}
	m := &Mirror{
		up:      up,
		dataDir: dataDir,
		prefix:  strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/"),
		logger:  logger,
		backoff: 200 * time.Millisecond,
		jobs:    make(chan string, 1024),
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for p := range m.jobs {
				m.upload(p)
			}
		}()
	}
	return m
}

// Enqueue never blocks; paths are dropped when the queue is full.
func (m *Mirror) Enqueue(paths ...string) {
	if m == nil {
		return
	}
	for _, p := range paths {
		select {
		case m.jobs <- p:
		default:
			m.dropped.Add(1)
			m.printf("mirror drop %s: queue full", p)
		}
	}
}

// Close drains the queue and waits for in-flight uploads.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	close(m.jobs)
	m.wg.Wait()
}

func (m *Mirror) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(m.jobs),
		QueueCapacity: cap(m.jobs),
		UploadedTotal: m.uploaded.Load(),
		FailedTotal:   m.failed.Load(),
		DroppedTotal:  m.dropped.Load(),
	}
}

func (m *Mirror) upload(localPath string) {
	key, err := m.key(localPath)
	if err != nil {
		m.failed.Add(1)
		m.printf("mirror skip %s: %v", localPath, err)
		return
	}
	const attempts = 4
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err = m.up.PutFile(ctx, key, localPath)
		cancel()
		if err == nil {
			m.uploaded.Add(1)
			return
		}
		if i < attempts {
			time.Sleep(time.Duration(i*i) * m.backoff)
		}
	}
	m.failed.Add(1)
	m.printf("mirror upload %s failed: %v", key, err)
}

func (m *Mirror) key(localPath string) (string, error) {
	base, err := filepath.Abs(m.dataDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("outside data dir %s", base)
	}
	if m.prefix != "" {
		rel = path.Join(m.prefix, rel)
	}
	return rel, nil
}

func (m *Mirror) printf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
