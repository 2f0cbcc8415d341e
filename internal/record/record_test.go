package record_test

import (
	"encoding/json"
	"testing"

	"seedpipe/internal/record"
)

func TestRecordAccessorsFromJSON(t *testing.T) {
	var rec record.Record
	raw := `{
		"id": 42,
		"author_name": "Jacob Chong",
		"follower_count": "120000",
		"views_count": 1500000,
		"saved": true,
		"status": null
	}`
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if rec.ID() != 42 {
		t.Fatalf("ID = %d, want 42", rec.ID())
	}
	if got := rec.Text("author_name"); got != "Jacob Chong" {
		t.Fatalf("Text(author_name) = %q", got)
	}
	if got := rec.Text("views_count"); got != "1500000" {
		t.Fatalf("Text(views_count) = %q", got)
	}
	if value, ok := rec.Int("follower_count"); !ok || value != 120000 {
		t.Fatalf("Int(follower_count) = %d, %v", value, ok)
	}
	if !rec.Truthy("saved") {
		t.Fatal("saved should be truthy")
	}
	if rec.Truthy("status") {
		t.Fatal("null status should not be truthy")
	}
	if rec.HasText("missing") {
		t.Fatal("missing field should not count as populated")
	}
}

func TestRecordZeroValuesAreUnset(t *testing.T) {
	rec := record.Record{"follower_count": 0.0, "email": "   ", "saved": false}
	if rec.HasText("follower_count") {
		t.Fatal("zero follower_count should not count as populated")
	}
	if rec.HasText("email") {
		t.Fatal("blank email should not count as populated")
	}
	if rec.Truthy("saved") {
		t.Fatal("false saved should not be truthy")
	}
}
