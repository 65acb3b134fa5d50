package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"terrastore/internal/codec"
	"terrastore/internal/store"

	"github.com/google/uuid"
)

const (
	TypeGeoJSON = "geojson"
	TypeKML     = "kml"
	TypeTIFF    = "tiff"
)

var allowedTypes = map[string]struct{}{
	TypeGeoJSON: {},
	TypeKML:     {},
	TypeTIFF:    {},
}

// contentTypes maps a stored type tag to the MIME type sent on retrieval.
// The raw tag stays in the database; only the outbound header is mapped.
var contentTypes = map[string]string{
	TypeGeoJSON: "application/geo+json",
	TypeKML:     "application/vnd.google-earth.kml+xml",
	TypeTIFF:    "image/tiff",
}

// FileTypeFromName derives the type tag from the substring after the last
// dot of the filename. Empty when there is no extension.
func FileTypeFromName(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

func ContentTypeFor(tag string) string {
	if ct, ok := contentTypes[tag]; ok {
		return ct
	}
	return "application/octet-stream"
}

// UploadFile ingests one staged transfer: derive and validate the type tag,
// read the bytes, encode, optionally archive the raw copy, and persist. The
// store insert is the final step, so no failure leaves a partial record.
func (s *Service) UploadFile(ctx context.Context, ownerID uuid.UUID, filename string, r io.Reader) (store.File, error) {
	fileType := FileTypeFromName(filename)
	if _, ok := allowedTypes[fileType]; !ok {
		return store.File{}, fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return store.File{}, fmt.Errorf("read upload: %w", err)
	}

	return s.persist(ctx, ownerID, filename, fileType, raw)
}

type FileContent struct {
	Name  string
	Type  string
	Bytes []byte
}

// FetchContent returns the decoded bytes and type tag for a record. The
// lookup is by id alone; see DESIGN.md for the scoping decision. Concurrent
// requests for the same id share a single lookup and decode.
func (s *Service) FetchContent(ctx context.Context, fileID uuid.UUID) (FileContent, error) {
	v, err, _ := s.fetchGroup.Do(fileID.String(), func() (any, error) {
		f, err := s.store.GetFileByID(ctx, fileID)
		if err != nil {
			if store.IsNotFound(err) {
				return nil, fmt.Errorf("%w: file %s", ErrNotFound, fileID)
			}
			return nil, err
		}
		raw, err := codec.Decode(f.Content)
		if err != nil {
			s.logger.Printf("decode file %s: %v", f.ID, err)
			return nil, fmt.Errorf("%w: file %s", ErrCorruptContent, f.ID)
		}
		return FileContent{Name: f.Name, Type: f.Type, Bytes: raw}, nil
	})
	if err != nil {
		return FileContent{}, err
	}
	return v.(FileContent), nil
}

func (s *Service) ListFiles(ctx context.Context, ownerID uuid.UUID) ([]store.FileSummary, error) {
	return s.store.ListFilesByOwner(ctx, ownerID)
}

// SaveAnnotation stores a drawn-features payload as a geojson record. The
// payload is persisted verbatim, viewport state included; no shape
// validation beyond being JSON.
func (s *Service) SaveAnnotation(ctx context.Context, ownerID uuid.UUID, name string, content json.RawMessage) (store.File, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return store.File{}, fmt.Errorf("%w: content must be valid JSON", ErrInvalidInput)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultAnnotationName(time.Now().UTC())
	}

	return s.persist(ctx, ownerID, name, TypeGeoJSON, trimmed)
}

func (s *Service) persist(ctx context.Context, ownerID uuid.UUID, name, fileType string, raw []byte) (store.File, error) {
	encoded := codec.Encode(raw)
	digest, blobKey := s.archiveRaw(ctx, raw)

	f, err := s.store.CreateFile(ctx, ownerID, name, fileType, encoded, digest, blobKey, int64(len(raw)))
	if err != nil {
		return store.File{}, fmt.Errorf("persist file: %w", err)
	}
	return f, nil
}

// archiveRaw writes the raw bytes through to the configured archive backend.
// The database copy is canonical, so an archive failure is logged and the
// upload continues without digest/key.
func (s *Service) archiveRaw(ctx context.Context, raw []byte) (digest, blobKey *string) {
	if s.archive == nil {
		return nil, nil
	}
	d, _, key, err := s.archive.Put(ctx, bytes.NewReader(raw))
	if err != nil {
		s.logger.Printf("archive raw content: %v", err)
		return nil, nil
	}
	return &d, &key
}

// defaultAnnotationName is unique even for saves within the same instant:
// the uuid fragment disambiguates identical timestamps.
func defaultAnnotationName(now time.Time) string {
	return fmt.Sprintf("annotation-%s-%s.geojson", now.Format("20060102T150405Z"), uuid.NewString()[:8])
}
