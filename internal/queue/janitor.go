package queue

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// Janitor bounds disk usage by deleting uploaded files older than the
// retention window, regardless of the owning job's status.
type Janitor struct {
	dir       string
	retention time.Duration
	interval  time.Duration
	stop      chan struct{}
}

func NewJanitor(dir string, retention time.Duration) *Janitor {
	return &Janitor{
		dir:       dir,
		retention: retention,
		interval:  time.Hour,
		stop:      make(chan struct{}),
	}
}

func (j *Janitor) Start() {
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.Sweep()
		for {
			select {
			case <-ticker.C:
				j.Sweep()
			case <-j.stop:
				return
			}
		}
	}()
}

func (j *Janitor) Stop() {
	close(j.stop)
}

// Sweep removes expired files and returns how many were deleted.
func (j *Janitor) Sweep() int {
	cutoff := time.Now().Add(-j.retention)
	removed := 0

	err := filepath.Walk(j.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if rmErr := os.Remove(path); rmErr != nil {
				log.Printf("Janitor could not remove %s: %v", path, rmErr)
			} else {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Janitor sweep failed on %s: %v", j.dir, err)
	}
	if removed > 0 {
		log.Printf("Janitor removed %d expired upload(s) from %s", removed, j.dir)
	}
	return removed
}
