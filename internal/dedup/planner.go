package dedup

import (
	"sort"

	"seedpipe/internal/record"
)

// AuditEntry records one discarded record and the survivor that replaced it.
// Entries are written to the backup file before any delete executes, so a
// failed or partial deletion run is always reconstructable from disk.
type AuditEntry struct {
	DeletedID         int64  `json:"deleted_id"`
	KeptID            int64  `json:"kept_id"`
	DeletedAuthorName string `json:"deleted_author_name"`
	DeletedAccountID  string `json:"deleted_account_id"`
	KeptAuthorName    string `json:"kept_author_name"`
	KeptAccountID     string `json:"kept_account_id"`
}

// Plan is the flattened delete set across all decisions. Entries and
// DeleteIDs are one-to-one and same-ordered.
type Plan struct {
	Entries   []AuditEntry
	DeleteIDs []int64
}

// BuildPlan flattens every decision's discard list into one ordered delete
// set. Decisions are visited in sorted key order so the plan is
// deterministic regardless of map iteration.
func BuildPlan(decisions map[string]Decision) Plan {
	keys := make([]string, 0, len(decisions))
	for key := range decisions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var plan Plan
	for _, key := range keys {
		decision := decisions[key]
		for _, discarded := range decision.Discard {
			plan.Entries = append(plan.Entries, newAuditEntry(discarded, decision.Keep))
			plan.DeleteIDs = append(plan.DeleteIDs, discarded.ID())
		}
	}
	return plan
}

func newAuditEntry(discarded, kept record.Record) AuditEntry {
	return AuditEntry{
		DeletedID:         discarded.ID(),
		KeptID:            kept.ID(),
		DeletedAuthorName: discarded.Text("author_name"),
		DeletedAccountID:  discarded.Text("account_id"),
		KeptAuthorName:    kept.Text("author_name"),
		KeptAccountID:     kept.Text("account_id"),
	}
}
