package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ErrEmptySnapshot is returned when no objects exist under the snapshot prefix.
var ErrEmptySnapshot = errors.New("snapshot is empty")

// objectAPI is the subset of *s3.Client the syncer uses.
type objectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Syncer copies index directories between the local disk and a bucket.
// Objects live under <prefix>/<name>/<relative path>.
type Syncer struct {
	api    objectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// New creates a Syncer.
func New(api objectAPI, bucket, prefix string, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		api:    api,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

func (s *Syncer) keyPrefix(name string) string {
	return path.Join(s.prefix, name) + "/"
}

// Fetch downloads snapshot name into localDir, replacing it only after every
// object has been written. Returns the number of files fetched.
func (s *Syncer) Fetch(ctx context.Context, name, localDir string) (int, error) {
	prefix := s.keyPrefix(name)

	parent := filepath.Dir(localDir)
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return 0, fmt.Errorf("create parent dir: %w", err)
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(localDir)+".fetch-")
	if err != nil {
		return 0, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	count := 0
	pages := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("list s3://%s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(key, prefix)
			if rel == "" || strings.HasSuffix(rel, "/") {
				continue
			}
			local := filepath.FromSlash(rel)
			if !filepath.IsLocal(local) {
				return 0, fmt.Errorf("object key %q escapes snapshot directory", key)
			}
			if err := s.download(ctx, key, filepath.Join(tmp, local)); err != nil {
				return 0, err
			}
			count++
		}
	}
	if count == 0 {
		return 0, fmt.Errorf("s3://%s/%s: %w", s.bucket, prefix, ErrEmptySnapshot)
	}

	if err := os.RemoveAll(localDir); err != nil {
		return 0, fmt.Errorf("remove old %s: %w", localDir, err)
	}
	if err := os.Rename(tmp, localDir); err != nil {
		return 0, fmt.Errorf("install snapshot: %w", err)
	}

	s.logger.Info("Snapshot fetched",
		zap.String("bucket", s.bucket),
		zap.String("prefix", prefix),
		zap.String("dir", localDir),
		zap.Int("files", count),
	)
	return count, nil
}

func (s *Syncer) download(ctx context.Context, key, dst string) error {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}
	f, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

// Publish uploads every regular file under localDir as snapshot name.
// Returns the number of files uploaded.
func (s *Syncer) Publish(ctx context.Context, name, localDir string) (int, error) {
	prefix := s.keyPrefix(name)
	count := 0

	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", p, err)
		}
		if err := s.upload(ctx, prefix+filepath.ToSlash(rel), p); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("publish %s: %w", localDir, err)
	}

	s.logger.Info("Snapshot published",
		zap.String("bucket", s.bucket),
		zap.String("prefix", prefix),
		zap.Int("files", count),
	)
	return count, nil
}

func (s *Syncer) upload(ctx context.Context, key, src string) error {
	f, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Snapshot names of the two retrieval indexes, shared by the indexer and the server.
const (
	LexicalName = "index_bm25"
	VectorName  = "index_vector"
)
