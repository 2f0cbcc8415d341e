package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"seedpipe/internal/logging"
	"seedpipe/internal/record"
)

// Patcher is the slice of the store gateway the mirror pass needs.
type Patcher interface {
	UpdateByID(ctx context.Context, table string, id int64, patch map[string]any) error
}

// Report accounts for one full mirror pass.
type Report struct {
	Candidates int
	Download   DownloadReport
	Upload     UploadReport
	Patched    int
	Errors     []string
}

// Service runs the download, upload, and write-back steps of a mirror
// pass over store records.
type Service struct {
	downloader *Downloader
	uploader   *Uploader
	patcher    Patcher
	table      string
	prefix     string
	logger     *slog.Logger
}

// NewService wires a mirror pass. Prefix is the object-key folder in the
// bucket, conventionally matching the local thumbnails directory name.
func NewService(downloader *Downloader, uploader *Uploader, patcher Patcher, table, prefix string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		downloader: downloader,
		uploader:   uploader,
		patcher:    patcher,
		table:      table,
		prefix:     prefix,
		logger:     logger.With(slog.String(logging.FieldComponent, "mirror")),
	}
}

// Run mirrors every record that still points at a scraper CDN thumbnail.
// Records already carrying a mirrored URL are left alone. Failures on one
// record never stop the others.
func (s *Service) Run(ctx context.Context, records []record.Record) *Report {
	report := &Report{}

	tasks := make([]Task, 0, len(records))
	for _, rec := range records {
		url := rec.Text("thumbnail_url")
		if url == "" || rec.HasText("r2_thumbnail_url") {
			continue
		}
		tasks = append(tasks, Task{
			ID:        rec.ID(),
			AccountID: rec.Text("account_id"),
			URL:       url,
		})
	}
	report.Candidates = len(tasks)
	s.logger.Info("mirror pass starting",
		slog.Int("records", len(records)),
		slog.Int("candidates", len(tasks)))
	if len(tasks) == 0 {
		return report
	}

	report.Download = s.downloader.DownloadAll(ctx, tasks)
	report.Errors = append(report.Errors, report.Download.Errors...)

	report.Upload = s.uploader.UploadAll(ctx, s.prefix, report.Download.Paths)
	report.Errors = append(report.Errors, report.Upload.Errors...)

	// Deterministic write-back order keeps the run log stable.
	ids := make([]int64, 0, len(report.Upload.URLs))
	for id := range report.Upload.URLs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		url := report.Upload.URLs[id]
		patch := map[string]any{
			"thumbnail_url":    url,
			"r2_thumbnail_url": url,
		}
		if err := s.patcher.UpdateByID(ctx, s.table, id, patch); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("patch %d: %v", id, err))
			s.logger.Warn("url write-back failed",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			continue
		}
		report.Patched++
	}

	s.logger.Info("mirror pass finished",
		slog.Int("downloaded", report.Download.Downloaded),
		slog.Int("skipped", report.Download.Skipped),
		slog.Int("uploaded", report.Upload.Uploaded),
		slog.Int("patched", report.Patched),
		slog.Int("errors", len(report.Errors)))
	return report
}
