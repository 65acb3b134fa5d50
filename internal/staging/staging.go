// Package staging holds inbound multipart transfers on disk until the upload
// pipeline has consumed them. Staged files are transient: callers remove them
// after use, and a background sweeper catches anything left behind by a crash
// mid-request.
package staging

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

type Dir struct {
	path   string
	maxAge time.Duration
	logger *log.Logger
}

func NewDir(path string, maxAge time.Duration, logger *log.Logger) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Dir{path: path, maxAge: maxAge, logger: logger}, nil
}

// Stage copies r to a new staging file and returns its path.
func (d *Dir) Stage(r io.Reader) (string, error) {
	f, err := os.CreateTemp(d.path, "upload-*")
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	name := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close staging file: %w", err)
	}
	return name, nil
}

func (d *Dir) Open(path string) (*os.File, error) {
	return os.Open(path)
}

// Remove is best-effort: a failure is logged and never surfaced, so it can
// run on every exit path of a request without affecting the response.
func (d *Dir) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		d.logger.Printf("remove staging file %s: %v", path, err)
	}
}
