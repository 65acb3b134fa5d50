package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store archives blobs in an S3-compatible bucket (AWS S3, MinIO, etc.).
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ BlobStorage = (*S3Store)(nil)

type S3Options struct {
	Client *s3.Client
	Bucket string
	Prefix string // optional key prefix, e.g. "blobs/"
}

func NewS3Store(opts S3Options) *S3Store {
	return &S3Store{
		client: opts.Client,
		bucket: opts.Bucket,
		prefix: opts.Prefix,
	}
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix != "" {
		return s.prefix + key
	}
	return key
}

func (s *S3Store) Put(ctx context.Context, r io.Reader) (digest string, size int64, key string, err error) {
	// Spool to a temp file first: PutObject wants a seekable body with a
	// known length, and the digest is only known after a full read.
	tmpFile, err := os.CreateTemp("", "s3-blob-*")
	if err != nil {
		return "", 0, "", fmt.Errorf("create tmp file: %w", err)
	}
	tmpName := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpName)
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmpFile, h), r)
	if err != nil {
		return "", 0, "", fmt.Errorf("write tmp blob: %w", err)
	}

	hexDigest := hex.EncodeToString(h.Sum(nil))
	digest = "sha256:" + hexDigest
	size = n
	key = path.Join("sha256", hexDigest[:2], hexDigest)

	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		return "", 0, "", fmt.Errorf("seek tmp file: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          tmpFile,
		ContentLength: aws.Int64(n),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return "", 0, "", fmt.Errorf("s3 put: %w", err)
	}

	return digest, size, key, nil
}

func (s *S3Store) Open(ctx context.Context, key string) (*Blob, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %q: %w", key, err)
	}
	size := int64(-1)
	if resp.ContentLength != nil {
		size = *resp.ContentLength
	}
	return NewBlob(resp.Body, size), nil
}
