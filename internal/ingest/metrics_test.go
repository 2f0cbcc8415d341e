package ingest_test

import (
	"testing"

	"seedpipe/internal/ingest"
)

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{1_000, "1.0K"},
		{12_345, "12.3K"},
		{999_999, "1000.0K"},
		{1_000_000, "1.0M"},
		{1_550_000, "1.6M"},
	}
	for _, tt := range tests {
		if got := ingest.FormatCount(tt.in); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFollowerTier(t *testing.T) {
	if got := ingest.FollowerTier(99_999); got != ingest.TierMicro {
		t.Errorf("99999 -> %q, want %q", got, ingest.TierMicro)
	}
	if got := ingest.FollowerTier(100_000); got != ingest.TierMega {
		t.Errorf("100000 -> %q, want %q", got, ingest.TierMega)
	}
}

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"no address here", ""},
		{"business: Hello@Example.COM for collabs", "hello@example.com"},
		{"first@a.io second@b.io", "first@a.io"},
		{"dotted.name+tag@sub.domain.co", "dotted.name+tag@sub.domain.co"},
	}
	for _, tt := range tests {
		if got := ingest.ExtractEmail(tt.in); got != tt.want {
			t.Errorf("ExtractEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClampCount(t *testing.T) {
	if got := ingest.ClampCount(-5); got != 0 {
		t.Errorf("negative clamps to 0, got %d", got)
	}
	if got := ingest.ClampCount(ingest.MaxStoredInt + 10); got != ingest.MaxStoredInt {
		t.Errorf("overflow clamps to max, got %d", got)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"123", 123},
		{"12345.0", 12345},
		{"1,234,567", 1234567},
		{"garbage", 0},
		{"NaN", 0},
	}
	for _, tt := range tests {
		if got := ingest.ParseCount(tt.in); got != tt.want {
			t.Errorf("ParseCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestComputeEngagement(t *testing.T) {
	e := ingest.ComputeEngagement(10_000, 800, 100, 100, 50_000)
	if e.EngagementRate != 10.0 {
		t.Errorf("engagement rate = %v, want 10.0", e.EngagementRate)
	}
	if e.CommentConversion != 1.0 {
		t.Errorf("comment conversion = %v, want 1.0", e.CommentConversion)
	}
	if e.FollowerQuality != 1.8 {
		t.Errorf("follower quality = %v, want 1.8", e.FollowerQuality)
	}
	if e.EstimatedCPM != 75.0 {
		t.Errorf("cpm = %v, want 75.0", e.EstimatedCPM)
	}
}

func TestComputeEngagementZeroDenominators(t *testing.T) {
	e := ingest.ComputeEngagement(0, 100, 10, 0, 0)
	if e.EngagementRate != 0 || e.CommentConversion != 0 || e.FollowerQuality != 0 {
		t.Errorf("rates must be zero without views/followers: %+v", e)
	}
	if e.EstimatedCPM != 0 {
		t.Errorf("cpm = %v, want 0", e.EstimatedCPM)
	}
	if e.CostEfficiency != 100 {
		t.Errorf("cost efficiency = %v, want 100", e.CostEfficiency)
	}
}

func TestComputeEngagementCPMCap(t *testing.T) {
	e := ingest.ComputeEngagement(1, 0, 0, 0, 10_000_000)
	if e.EstimatedCPM != 150 {
		t.Errorf("cpm must cap at 150, got %v", e.EstimatedCPM)
	}
}
