package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Stats summarizes one dedupe run. Field names match the backup document
// format, which downstream tooling parses.
type Stats struct {
	TotalRecords      int      `json:"total_records"`
	DuplicateGroups   int      `json:"duplicate_groups"`
	DuplicatesFound   int      `json:"duplicates_found"`
	DuplicatesRemoved int      `json:"duplicates_removed"`
	Errors            []string `json:"errors"`
}

// Backup is the durable audit document written before any deletion.
type Backup struct {
	Timestamp string       `json:"timestamp"`
	Stats     Stats        `json:"stats"`
	Deletions []AuditEntry `json:"deletions"`
}

// BackupPath returns the timestamped backup file path for a run.
func BackupPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("duplicate_backup_%s.json", now.Format("20060102_150405")))
}

// WriteBackup persists the audit document. The file is fully written and
// synced before the caller issues any destructive call.
func WriteBackup(path string, backup Backup) error {
	if backup.Stats.Errors == nil {
		backup.Stats.Errors = []string{}
	}
	if backup.Deletions == nil {
		backup.Deletions = []AuditEntry{}
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create backup directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync backup file: %w", err)
	}
	return nil
}
