// Package mirror copies remote thumbnail images to local disk and on to
// R2 object storage, then writes the mirrored URLs back to the store.
// Scraper CDN links expire after a few weeks; mirrored copies do not.
package mirror

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"seedpipe/internal/logging"
)

const downloadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

var unsafeFilenameChars = regexp.MustCompile(`[/\\:*?"<>|]`)

// Task is one thumbnail to fetch.
type Task struct {
	ID        int64
	AccountID string
	URL       string
}

// DownloadReport accounts for one download pass.
type DownloadReport struct {
	Downloaded int
	Skipped    int
	Failed     int
	Errors     []string
	// Paths maps record id to the local file for each available image,
	// whether downloaded now or found on disk from an earlier pass.
	Paths map[int64]string
}

// Downloader fetches thumbnails with bounded concurrency.
type Downloader struct {
	client  *http.Client
	dir     string
	workers int
	logger  *slog.Logger
}

// NewDownloader builds a downloader writing into dir. Workers defaults
// to 10.
func NewDownloader(client *http.Client, dir string, workers int, logger *slog.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	if workers <= 0 {
		workers = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		client:  client,
		dir:     dir,
		workers: workers,
		logger:  logger.With(slog.String(logging.FieldComponent, "mirror")),
	}
}

// Filename returns the local file name for a record: the sanitized
// account id, falling back to the record id.
func Filename(task Task) string {
	name := unsafeFilenameChars.ReplaceAllString(task.AccountID, "_")
	if name == "" {
		name = fmt.Sprintf("%d", task.ID)
	}
	return name + ".jpg"
}

// DownloadAll fetches every task image, skipping files already on disk.
// Individual failures are recorded in the report and do not stop the pass.
func (d *Downloader) DownloadAll(ctx context.Context, tasks []Task) DownloadReport {
	report := DownloadReport{Paths: make(map[int64]string, len(tasks))}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		report.Failed = len(tasks)
		report.Errors = append(report.Errors, fmt.Sprintf("create %s: %v", d.dir, err))
		return report
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, d.workers)
	)

	for _, task := range tasks {
		if task.URL == "" {
			continue
		}
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			path := filepath.Join(d.dir, Filename(task))
			skipped, err := d.download(ctx, task.URL, path)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed++
				report.Errors = append(report.Errors, fmt.Sprintf("download %s: %v", task.AccountID, err))
				d.logger.Warn("thumbnail download failed",
					slog.Int64("id", task.ID),
					slog.String("account_id", task.AccountID),
					slog.String("error", err.Error()))
			case skipped:
				report.Skipped++
				report.Paths[task.ID] = path
			default:
				report.Downloaded++
				report.Paths[task.ID] = path
				d.logger.Debug("thumbnail downloaded",
					slog.Int64("id", task.ID),
					slog.String("path", path))
			}
		}(task)
	}
	wg.Wait()

	sort.Strings(report.Errors)
	return report
}

func (d *Downloader) download(ctx context.Context, url, path string) (skipped bool, err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return true, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", downloadUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tmp := path + ".partial"
	file, err := os.Create(tmp)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return false, err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	return false, os.Rename(tmp, path)
}
