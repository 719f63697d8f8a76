package mirror

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store receives the materialized files of a mirror build.
type Store interface {
	// Write stores body at the slash-separated relative path rel.
	Write(ctx context.Context, rel string, body []byte) error
}

// DirStore writes mirror files under a local directory, creating
// intermediate directories as needed.
type DirStore struct {
	dir string
}

// NewDirStore creates a DirStore rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Write(ctx context.Context, rel string, body []byte) error {
	target := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, body, 0o644)
}

// Dir returns the root directory of the store.
func (s *DirStore) Dir() string {
	return s.dir
}

// S3API is the part of the S3 client S3Store uses. *s3.Client
// satisfies it.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads mirror files to an S3 bucket.
type S3Store struct {
	client      S3API
	bucket      string
	prefix      string
	contentType string
}

// NewS3Store creates an S3Store. prefix is prepended to every object key,
// e.g. "mirror/".
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client:      client,
		bucket:      bucket,
		prefix:      prefix,
		contentType: "text/html; charset=utf-8",
	}
}

// WithContentType sets the Content-Type uploaded objects are tagged with.
func (s *S3Store) WithContentType(ct string) *S3Store {
	s.contentType = ct
	return s
}

func (s *S3Store) Write(ctx context.Context, rel string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + rel),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(s.contentType),
	})
	return err
}
