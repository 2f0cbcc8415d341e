package dedup_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"seedpipe/internal/dedup"
	"seedpipe/internal/record"
)

func TestBuildPlanConservation(t *testing.T) {
	records := []record.Record{
		{"id": 1.0, "author_name": "a", "account_id": "b", "saved": true},
		{"id": 2.0, "author_name": "b", "account_id": "a"},
		{"id": 3.0, "author_name": "a", "account_id": "b"},
		{"id": 4.0, "author_name": "c", "account_id": "d", "email": "c@d.e"},
		{"id": 5.0, "author_name": "d", "account_id": "c"},
	}

	decisions := dedup.NewResolver(nil).Resolve(records)
	plan := dedup.BuildPlan(decisions)

	wantDeletes := 0
	keptIDs := make(map[int64]bool)
	for _, decision := range decisions {
		wantDeletes += len(decision.Discard)
		keptIDs[decision.Keep.ID()] = true
	}
	if len(plan.DeleteIDs) != wantDeletes {
		t.Fatalf("delete ids = %d, want %d", len(plan.DeleteIDs), wantDeletes)
	}
	if len(plan.Entries) != len(plan.DeleteIDs) {
		t.Fatalf("entries (%d) and ids (%d) must be one-to-one", len(plan.Entries), len(plan.DeleteIDs))
	}
	for i, entry := range plan.Entries {
		if entry.DeletedID != plan.DeleteIDs[i] {
			t.Fatalf("entry %d id %d != delete id %d", i, entry.DeletedID, plan.DeleteIDs[i])
		}
		if keptIDs[entry.DeletedID] {
			t.Fatalf("kept id %d staged for deletion", entry.DeletedID)
		}
		if !keptIDs[entry.KeptID] {
			t.Fatalf("entry %d references unknown kept id %d", i, entry.KeptID)
		}
	}
}

func TestBuildPlanOrderIsKeySorted(t *testing.T) {
	decisions := map[string]dedup.Decision{
		"z|z": {
			Key:     "z|z",
			Keep:    record.Record{"id": 1.0},
			Discard: []record.Record{{"id": 2.0}},
		},
		"a|a": {
			Key:     "a|a",
			Keep:    record.Record{"id": 3.0},
			Discard: []record.Record{{"id": 4.0}, {"id": 5.0}},
		},
	}

	plan := dedup.BuildPlan(decisions)
	want := []int64{4, 5, 2}
	for i, id := range want {
		if plan.DeleteIDs[i] != id {
			t.Fatalf("delete ids = %v, want %v", plan.DeleteIDs, want)
		}
	}
}

func TestBuildPlanCarriesIdentityFields(t *testing.T) {
	decisions := map[string]dedup.Decision{
		"jacob chong|jacho": {
			Keep:    record.Record{"id": 1.0, "author_name": "Jacob Chong", "account_id": "jacho"},
			Discard: []record.Record{{"id": 2.0, "author_name": "jacho", "account_id": "Jacob Chong"}},
		},
	}

	plan := dedup.BuildPlan(decisions)
	entry := plan.Entries[0]
	if entry.DeletedID != 2 || entry.KeptID != 1 {
		t.Fatalf("unexpected ids: %+v", entry)
	}
	if entry.DeletedAuthorName != "jacho" || entry.KeptAuthorName != "Jacob Chong" {
		t.Fatalf("unexpected author names: %+v", entry)
	}
	if entry.DeletedAccountID != "Jacob Chong" || entry.KeptAccountID != "jacho" {
		t.Fatalf("unexpected account ids: %+v", entry)
	}
}

func TestWriteBackupRoundTrip(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)
	path := dedup.BackupPath(dir, now)
	if filepath.Base(path) != "duplicate_backup_20240601_093000.json" {
		t.Fatalf("unexpected backup name %q", filepath.Base(path))
	}

	backup := dedup.Backup{
		Timestamp: now.Format("20060102_150405"),
		Stats: dedup.Stats{
			TotalRecords:    10,
			DuplicateGroups: 1,
			DuplicatesFound: 1,
		},
		Deletions: []dedup.AuditEntry{{DeletedID: 2, KeptID: 1}},
	}
	if err := dedup.WriteBackup(path, backup); err != nil {
		t.Fatalf("WriteBackup failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("backup is not valid JSON: %v", err)
	}
	stats, ok := decoded["stats"].(map[string]any)
	if !ok || stats["total_records"] != 10.0 {
		t.Fatalf("unexpected stats: %v", decoded["stats"])
	}
	if decoded["timestamp"] != "20240601_093000" {
		t.Fatalf("unexpected timestamp: %v", decoded["timestamp"])
	}
	deletions, ok := decoded["deletions"].([]any)
	if !ok || len(deletions) != 1 {
		t.Fatalf("unexpected deletions: %v", decoded["deletions"])
	}
}

func TestWriteBackupNormalizesNilSlices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := dedup.WriteBackup(path, dedup.Backup{}); err != nil {
		t.Fatalf("WriteBackup failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	var decoded struct {
		Stats struct {
			Errors []string `json:"errors"`
		} `json:"stats"`
		Deletions []dedup.AuditEntry `json:"deletions"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Stats.Errors == nil || decoded.Deletions == nil {
		t.Fatal("expected empty arrays, not null")
	}
}
