package dedup_test

import (
	"reflect"
	"testing"

	"seedpipe/internal/dedup"
	"seedpipe/internal/record"
)

func TestResolveSwappedFieldsScenario(t *testing.T) {
	records := []record.Record{
		{"id": 1.0, "author_name": "Jacob Chong", "account_id": "jacho", "saved": true},
		{"id": 2.0, "author_name": "jacho", "account_id": "Jacob Chong", "saved": false},
	}

	decisions := dedup.NewResolver(nil).Resolve(records)
	if len(decisions) != 1 {
		t.Fatalf("expected 1 group, got %d", len(decisions))
	}
	decision, ok := decisions["jacho|jacob chong"]
	if !ok {
		t.Fatalf("missing expected key, got %v", keysOf(decisions))
	}
	if decision.Keep.ID() != 1 {
		t.Fatalf("keep.id = %d, want 1", decision.Keep.ID())
	}
	if len(decision.Discard) != 1 || decision.Discard[0].ID() != 2 {
		t.Fatalf("unexpected discard set: %v", decision.Discard)
	}
}

func TestResolveZeroScoreTieKeepsFirstFetched(t *testing.T) {
	records := []record.Record{
		{"id": 10.0, "author_name": "ghost", "account_id": ""},
		{"id": 11.0, "author_name": "", "account_id": "ghost"},
		{"id": 12.0, "author_name": "Ghost", "account_id": ""},
	}

	decisions := dedup.NewResolver(nil).Resolve(records)
	if len(decisions) != 1 {
		t.Fatalf("expected 1 group, got %d", len(decisions))
	}
	decision := decisions["|ghost"]
	if decision.Keep.ID() != 10 {
		t.Fatalf("keep.id = %d, want first-fetched 10", decision.Keep.ID())
	}
	ids := discardIDs(decision)
	if !reflect.DeepEqual(ids, []int64{11, 12}) {
		t.Fatalf("discard ids = %v, want [11 12]", ids)
	}
}

func TestResolveIgnoresSingletonsAndUnkeyedRecords(t *testing.T) {
	records := []record.Record{
		{"id": 1.0, "author_name": "solo", "account_id": ""},
		{"id": 2.0, "author_name": "", "account_id": ""},
		{"id": 3.0},
	}

	decisions := dedup.NewResolver(nil).Resolve(records)
	if len(decisions) != 0 {
		t.Fatalf("expected no decisions, got %v", keysOf(decisions))
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	records := []record.Record{
		{"id": 1.0, "author_name": "a", "account_id": "b", "email": "x@y.z"},
		{"id": 2.0, "author_name": "b", "account_id": "a"},
		{"id": 3.0, "author_name": "c", "account_id": "d", "saved": true},
		{"id": 4.0, "author_name": "d", "account_id": "c"},
		{"id": 5.0, "author_name": "c", "account_id": "d"},
	}

	resolver := dedup.NewResolver(nil)
	first := dedup.BuildPlan(resolver.Resolve(records))
	second := dedup.BuildPlan(resolver.Resolve(records))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("plans differ:\n%v\n%v", first, second)
	}
}

func TestResolveEveryRecordInAtMostOneDecision(t *testing.T) {
	records := []record.Record{
		{"id": 1.0, "author_name": "a", "account_id": "b"},
		{"id": 2.0, "author_name": "b", "account_id": "a"},
		{"id": 3.0, "author_name": "a", "account_id": "b"},
		{"id": 4.0, "author_name": "x", "account_id": "y"},
	}

	decisions := dedup.NewResolver(nil).Resolve(records)
	seen := make(map[int64]int)
	for _, decision := range decisions {
		seen[decision.Keep.ID()]++
		for _, rec := range decision.Discard {
			seen[rec.ID()]++
		}
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("record %d appears in %d decisions", id, count)
		}
	}
	if _, ok := seen[4]; ok {
		t.Fatal("singleton record 4 should not appear in any decision")
	}
}

func keysOf(decisions map[string]dedup.Decision) []string {
	keys := make([]string, 0, len(decisions))
	for key := range decisions {
		keys = append(keys, key)
	}
	return keys
}

func discardIDs(decision dedup.Decision) []int64 {
	ids := make([]int64, 0, len(decision.Discard))
	for _, rec := range decision.Discard {
		ids = append(ids, rec.ID())
	}
	return ids
}
