package storage

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper reclaims files in the working storage area that outlived the
// configured age. It is the safety net behind per-job cleanup: anything a
// crashed or interrupted job left behind gets deleted here.
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	logger   zerolog.Logger

	mu        sync.Mutex
	lastSweep time.Time
}

// NewSweeper builds a sweeper over dir deleting files older than maxAge,
// running at most once per interval when triggered opportunistically.
func NewSweeper(dir string, maxAge, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{dir: dir, maxAge: maxAge, interval: interval, logger: logger}
}

// MaybeSweep runs a sweep if at least interval has elapsed since the last
// one. It is called at the start of request handling, so an idle service
// accumulates files until traffic resumes.
func (s *Sweeper) MaybeSweep() {
	s.mu.Lock()
	if time.Since(s.lastSweep) < s.interval {
		s.mu.Unlock()
		return
	}
	s.lastSweep = time.Now()
	s.mu.Unlock()

	s.Sweep()
}

// Sweep deletes every file in the working storage area older than the
// configured age. Per-file errors are logged and skipped; Sweep never
// fails its caller.
func (s *Sweeper) Sweep() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error().Err(err).Str("dir", s.dir).Msg("sweep: read dir failed")
		return
	}

	cutoff := time.Now().Add(-s.maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("sweep: stat failed")
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("sweep: remove failed")
			continue
		}
		s.logger.Info().Str("file", entry.Name()).Time("modified", info.ModTime()).Msg("sweep: removed expired file")
	}
}
