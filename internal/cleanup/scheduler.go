// Package cleanup sweeps stale scratch files: normalized audio, snippets and
// uploads waiting to be processed.
package cleanup

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Scheduler periodically removes old files from scratch directories.
type Scheduler struct {
	dirs     []string
	interval time.Duration
	maxAge   time.Duration

	// InUse reports files an active run still needs; they are never removed.
	InUse func() map[string]bool

	now func() time.Time
}

// Result summarizes one sweep
type Result struct {
	Files int
	Bytes int64
}

// NewScheduler creates a scheduler for dirs. Meeting outputs and the
// recordings directory must not be passed here.
func NewScheduler(interval, maxAge time.Duration, dirs ...string) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		dirs:     dirs,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	log.Println("Running initial temp file cleanup...")
	s.Sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("Cleanup scheduler started (interval: %s, max age: %s)", s.interval, s.maxAge)
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			log.Println("Cleanup scheduler stopped")
			return
		}
	}
}

// Sweep removes every file older than maxAge that no run is using.
func (s *Scheduler) Sweep() Result {
	var keep map[string]bool
	if s.InUse != nil {
		keep = s.InUse()
	}
	now := s.now()

	var res Result
	for _, dir := range s.dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil // skip what we can't read
			}
			if keep[path] || keep[filepath.Clean(path)] {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}

			age := now.Sub(info.ModTime())
			if age <= s.maxAge {
				return nil
			}
			if err := os.Remove(path); err != nil {
				log.Printf("Failed to delete old file %s: %v", path, err)
				return nil
			}
			res.Files++
			res.Bytes += info.Size()
			log.Printf("Deleted old temp file: %s (age: %s, size: %dKB)",
				filepath.Base(path), age.Round(time.Minute), info.Size()/1024)
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			log.Printf("Error during cleanup of %s: %v", dir, err)
		}
	}

	if res.Files > 0 {
		log.Printf("Cleanup complete: %d files deleted, %.2fMB freed",
			res.Files, float64(res.Bytes)/(1024*1024))
	}
	return res
}

// EnsureDirs creates the scratch directories if they don't exist
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		log.Printf("Directory ready: %s", dir)
	}
	return nil
}
