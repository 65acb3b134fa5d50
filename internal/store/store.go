// Package store is the persistence gateway for file and user records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrConflict = errors.New("conflict")

// File is one stored geospatial artifact. Content holds the text-safe
// encoding of the original bytes; Digest and BlobKey are set only when a raw
// archive backend is configured.
type File struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Type      string
	Content   string
	Digest    *string
	BlobKey   *string
	SizeBytes int64
	CreatedAt time.Time
}

// FileSummary is the listing projection: content is deliberately omitted.
type FileSummary struct {
	ID   uuid.UUID
	Name string
	Type string
}

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) CreateFile(ctx context.Context, ownerID uuid.UUID, name, fileType, content string, digest, blobKey *string, sizeBytes int64) (File, error) {
	var f File
	err := s.db.QueryRow(ctx, `
		INSERT INTO files (owner_id, name, file_type, content, digest, blob_key, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, owner_id, name, file_type, content, digest, blob_key, size_bytes, created_at
	`, ownerID, name, fileType, content, digest, blobKey, sizeBytes).Scan(
		&f.ID, &f.OwnerID, &f.Name, &f.Type, &f.Content, &f.Digest, &f.BlobKey, &f.SizeBytes, &f.CreatedAt,
	)
	if err != nil {
		return File{}, err
	}
	return f, nil
}

// ListFilesByOwner returns the caller's files without their content. Ordered
// by creation time so repeated reads are stable in the absence of writes.
func (s *Store) ListFilesByOwner(ctx context.Context, ownerID uuid.UUID) ([]FileSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, file_type
		FROM files
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []FileSummary
	for rows.Next() {
		var f FileSummary
		if err := rows.Scan(&f.ID, &f.Name, &f.Type); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// GetFileByID fetches a full record including content. The lookup is not
// owner-scoped: any authenticated caller who knows an id may retrieve it,
// which keeps shared map links working (see DESIGN.md).
func (s *Store) GetFileByID(ctx context.Context, id uuid.UUID) (File, error) {
	var f File
	err := s.db.QueryRow(ctx, `
		SELECT id, owner_id, name, file_type, content, digest, blob_key, size_bytes, created_at
		FROM files
		WHERE id = $1
	`, id).Scan(
		&f.ID, &f.OwnerID, &f.Name, &f.Type, &f.Content, &f.Digest, &f.BlobKey, &f.SizeBytes, &f.CreatedAt,
	)
	if err != nil {
		return File{}, err
	}
	return f, nil
}

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, password_hash, created_at
	`, name, email, passwordHash).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrConflict
		}
		return User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// EnsureUser returns the user with the given email, creating one with an
// empty password hash if absent. Used for externally authenticated logins,
// where the identity provider owns the credential.
func (s *Store) EnsureUser(ctx context.Context, name, email string) (User, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !IsNotFound(err) {
		return User{}, err
	}
	u, err = s.CreateUser(ctx, name, email, "")
	if errors.Is(err, ErrConflict) {
		// Lost a race with a concurrent first login.
		return s.GetUserByEmail(ctx, email)
	}
	return u, err
}

func (s *Store) CreateSessionToken(ctx context.Context, tokenHash string, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO session_tokens (token_hash, user_id)
		VALUES ($1, $2)
	`, tokenHash, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
