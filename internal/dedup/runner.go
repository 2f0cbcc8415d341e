package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"seedpipe/internal/logging"
	"seedpipe/internal/record"
	"seedpipe/internal/services"
)

// Gateway is the slice of the store gateway the dedupe run needs.
type Gateway interface {
	FetchAll(ctx context.Context, table string) ([]record.Record, error)
	DeleteByIDs(ctx context.Context, table string, ids []int64) error
}

// Options configures one dedupe run.
type Options struct {
	Table     string
	DryRun    bool
	BatchSize int
	BackupDir string
	Weights   record.ScoreWeights
}

// Result reports the outcome of a dedupe run.
type Result struct {
	Stats            Stats
	Plan             Plan
	BackupPath       string
	BatchesSucceeded int
	BatchesFailed    int
	DryRun           bool
}

// Runner orchestrates fetch, resolution, planning, backup, and batched
// deletion. The whole run is sequential: delete batches are applied in plan
// order so the audit trail stays meaningful, and the dataset is small enough
// that parallel fetches buy nothing.
type Runner struct {
	gateway  Gateway
	resolver *Resolver
	logger   *slog.Logger
	opts     Options

	// Now is overridable for deterministic backup paths in tests.
	Now func() time.Time
}

// NewRunner builds a runner. BatchSize defaults to 100.
func NewRunner(gateway Gateway, logger *slog.Logger, opts Options) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &Runner{
		gateway:  gateway,
		resolver: NewResolver(record.NewScorer(opts.Weights)),
		logger:   logger.With(slog.String(logging.FieldComponent, "dedupe")),
		opts:     opts,
		Now:      time.Now,
	}
}

// Run executes one dedupe pass. It returns an error only for conditions that
// abort the run (failed fetch, empty table, unwritable backup); individual
// batch failures are recorded in the result and do not fail the run.
//
// Re-running against a store that already reflects a prior deletion finds no
// further groups for the resolved keys, so a run is safe to repeat.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.logger.Info("fetching records", slog.String(logging.FieldTable, r.opts.Table))
	records, err := r.gateway.FetchAll(ctx, r.opts.Table)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrNoRecords, "dedupe", "fetch",
			fmt.Sprintf("table %s is empty", r.opts.Table), nil)
	}

	result := &Result{DryRun: r.opts.DryRun}
	result.Stats.TotalRecords = len(records)
	r.logger.Info("fetched records", slog.Int("total", len(records)))

	decisions := r.resolver.Resolve(records)
	result.Stats.DuplicateGroups = len(decisions)
	for _, decision := range decisions {
		result.Stats.DuplicatesFound += len(decision.Discard)
	}
	r.logger.Info("identified duplicates",
		slog.Int("groups", result.Stats.DuplicateGroups),
		slog.Int("duplicates", result.Stats.DuplicatesFound))

	if len(decisions) == 0 {
		return result, nil
	}

	result.Plan = BuildPlan(decisions)
	r.logDecisions(decisions)

	// The audit trail goes to disk before anything is deleted.
	result.BackupPath = BackupPath(r.opts.BackupDir, r.Now())
	backup := Backup{
		Timestamp: r.Now().Format("20060102_150405"),
		Stats:     result.Stats,
		Deletions: result.Plan.Entries,
	}
	if err := WriteBackup(result.BackupPath, backup); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "dedupe", "backup", result.BackupPath, err)
	}
	r.logger.Info("backup written", slog.String("path", result.BackupPath))

	if r.opts.DryRun {
		result.Stats.DuplicatesRemoved = len(result.Plan.DeleteIDs)
		r.logger.Info("dry run: no records deleted", slog.Int("would_delete", len(result.Plan.DeleteIDs)))
		return result, nil
	}

	r.deleteBatches(ctx, result)
	return result, nil
}

func (r *Runner) logDecisions(decisions map[string]Decision) {
	keys := make([]string, 0, len(decisions))
	for key := range decisions {
		keys = append(keys, key)
	}
	// Plan order, so the run log mirrors the backup file.
	sort.Strings(keys)

	for _, key := range keys {
		decision := decisions[key]
		r.logger.Info("duplicate group",
			slog.String(logging.FieldKey, key),
			slog.Int64("keep_id", decision.Keep.ID()),
			slog.String("keep_author_name", decision.Keep.Text("author_name")),
			slog.String("keep_account_id", decision.Keep.Text("account_id")))
		for _, discarded := range decision.Discard {
			r.logger.Info("staged for deletion",
				slog.String(logging.FieldKey, key),
				slog.Int64("id", discarded.ID()),
				slog.String("author_name", discarded.Text("author_name")),
				slog.String("account_id", discarded.Text("account_id")))
		}
	}
}

func (r *Runner) deleteBatches(ctx context.Context, result *Result) {
	ids := result.Plan.DeleteIDs
	r.logger.Info("deleting duplicates",
		slog.Int("total", len(ids)),
		slog.Int("batch_size", r.opts.BatchSize))

	for start := 0; start < len(ids); start += r.opts.BatchSize {
		end := start + r.opts.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		batchIndex := start/r.opts.BatchSize + 1

		if err := r.gateway.DeleteByIDs(ctx, r.opts.Table, batch); err != nil {
			result.BatchesFailed++
			result.Stats.Errors = append(result.Stats.Errors,
				fmt.Sprintf("delete batch %d (%d ids): %v", batchIndex, len(batch), err))
			r.logger.Error("delete batch failed",
				slog.Int(logging.FieldBatch, batchIndex),
				slog.Int("ids", len(batch)),
				slog.String("error", err.Error()))
			continue
		}

		result.BatchesSucceeded++
		result.Stats.DuplicatesRemoved += len(batch)
		r.logger.Info("deleted batch",
			slog.Int(logging.FieldBatch, batchIndex),
			slog.Int("ids", len(batch)))
	}
}
