package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalStore_PutOpenRoundTrip(t *testing.T) {
	t.Parallel()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	payload := []byte{0x49, 0x49, 0x2a, 0x00, 0x01, 0xff}
	digest, size, key, err := s.Put(context.Background(), bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if size != int64(len(payload)) {
		t.Fatalf("size = %d, want %d", size, len(payload))
	}
	if !strings.HasPrefix(digest, "sha256:") {
		t.Fatalf("digest = %q, want sha256 prefix", digest)
	}

	blob, err := s.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer blob.Close()

	got, err := io.ReadAll(blob)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("blob bytes = %v, want %v", got, payload)
	}
	if blob.Size() != int64(len(payload)) {
		t.Fatalf("Size() = %d, want %d", blob.Size(), len(payload))
	}
}

func TestLocalStore_PutIsIdempotentForSameContent(t *testing.T) {
	t.Parallel()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	payload := []byte("same bytes twice")
	d1, _, k1, err := s.Put(context.Background(), bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("first Put() error = %v", err)
	}
	d2, _, k2, err := s.Put(context.Background(), bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("second Put() error = %v", err)
	}
	if d1 != d2 || k1 != k2 {
		t.Fatalf("duplicate Put() diverged: (%q,%q) vs (%q,%q)", d1, k1, d2, k2)
	}
}

func TestLocalStore_OpenMissingKey(t *testing.T) {
	t.Parallel()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	if _, err := s.Open(context.Background(), "sha256/ab/absent"); err == nil {
		t.Fatal("Open() of a missing key should error")
	}
}
