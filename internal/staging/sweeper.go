package staging

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Sweep removes staged files older than the configured max age and returns
// how many were deleted.
func (d *Dir) Sweep(now time.Time) int {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		d.logger.Printf("sweep staging dir: %v", err)
		return 0
	}

	removed := 0
	cutoff := now.Add(-d.maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		full := filepath.Join(d.path, entry.Name())
		if err := os.Remove(full); err != nil {
			d.logger.Printf("sweep remove %s: %v", full, err)
			continue
		}
		removed++
	}
	return removed
}

// Run sweeps periodically until ctx is cancelled. An interval of zero or
// less disables the sweeper.
func (d *Dir) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.Sweep(time.Now()); n > 0 {
				d.logger.Printf("staging sweep removed %d orphaned file(s)", n)
			}
		}
	}
}
