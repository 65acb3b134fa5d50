// Package service orchestrates the upload, retrieval, and annotation-save
// pipelines on top of the persistence gateway and the optional raw archive.
package service

import (
	"context"
	"io"
	"log"

	"terrastore/internal/storage"
	"terrastore/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Store is the persistence capability the pipelines need. *store.Store
// satisfies it; tests substitute fakes.
type Store interface {
	CreateFile(ctx context.Context, ownerID uuid.UUID, name, fileType, content string, digest, blobKey *string, sizeBytes int64) (store.File, error)
	ListFilesByOwner(ctx context.Context, ownerID uuid.UUID) ([]store.FileSummary, error)
	GetFileByID(ctx context.Context, id uuid.UUID) (store.File, error)
	CreateUser(ctx context.Context, name, email, passwordHash string) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (store.User, error)
	EnsureUser(ctx context.Context, name, email string) (store.User, error)
	CreateSessionToken(ctx context.Context, tokenHash string, userID uuid.UUID) error
}

type Service struct {
	store   Store
	archive storage.BlobStorage // nil when no archive backend is configured
	logger  *log.Logger

	// Concurrent fetches of the same immutable record share one decode.
	fetchGroup singleflight.Group
}

func New(st Store, archive storage.BlobStorage, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		store:   st,
		archive: archive,
		logger:  logger,
	}
}
