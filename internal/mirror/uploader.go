package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"seedpipe/internal/config"
	"seedpipe/internal/logging"
)

const (
	thumbnailContentType  = "image/jpeg"
	thumbnailCacheControl = "public, max-age=31536000"
)

// ObjectPutter is the slice of the S3 API the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// UploadReport accounts for one upload pass.
type UploadReport struct {
	Uploaded int
	Failed   int
	Errors   []string
	// URLs maps record id to the public mirrored URL.
	URLs map[int64]string
}

// Uploader pushes local thumbnails to the R2 bucket.
type Uploader struct {
	client  ObjectPutter
	bucket  string
	baseURL string
	workers int
	logger  *slog.Logger
}

// NewUploader wires an uploader against the R2 bucket from config. R2 is
// S3-compatible: account-scoped endpoint, "auto" region, SigV4.
func NewUploader(cfg config.R2, logger *slog.Logger) *Uploader {
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)),
		Region:       "auto",
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	})
	return NewUploaderWithClient(client, cfg, logger)
}

// NewUploaderWithClient is NewUploader with an injected S3 client.
func NewUploaderWithClient(client ObjectPutter, cfg config.R2, logger *slog.Logger) *Uploader {
	workers := cfg.MaxConcurrent
	if workers <= 0 {
		workers = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		workers: workers,
		logger:  logger.With(slog.String(logging.FieldComponent, "mirror")),
	}
}

// PublicURL returns the serving URL for an uploaded object key.
func (u *Uploader) PublicURL(key string) string {
	return u.baseURL + "/" + key
}

// Upload pushes one local file under the given object key and returns its
// public URL.
func (u *Uploader) Upload(ctx context.Context, key, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         file,
		ContentType:  aws.String(thumbnailContentType),
		CacheControl: aws.String(thumbnailCacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return u.PublicURL(key), nil
}

// UploadAll pushes the downloaded files from a report, keyed under prefix,
// with bounded concurrency. Individual failures do not stop the pass.
func (u *Uploader) UploadAll(ctx context.Context, prefix string, paths map[int64]string) UploadReport {
	report := UploadReport{URLs: make(map[int64]string, len(paths))}
	prefix = strings.Trim(prefix, "/")

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, u.workers)
	)

	for id, path := range paths {
		wg.Add(1)
		go func(id int64, path string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			key := keyFor(prefix, path)
			url, err := u.Upload(ctx, key, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, err.Error())
				u.logger.Warn("thumbnail upload failed",
					slog.Int64("id", id),
					slog.String(logging.FieldKey, key),
					slog.String("error", err.Error()))
				return
			}
			report.Uploaded++
			report.URLs[id] = url
		}(id, path)
	}
	wg.Wait()

	return report
}

func keyFor(prefix, path string) string {
	name := filepath.Base(path)
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
