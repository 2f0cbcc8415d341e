package ingest

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Follower tiers used by the analyst spreadsheets.
const (
	TierMicro = "마이크로"
	TierMega  = "메가"

	tierThreshold = 100_000
)

// MaxStoredInt caps counters at the store's 32-bit integer columns.
const MaxStoredInt = math.MaxInt32

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// FormatCount renders a counter in the K/M display notation the frontend
// expects: 1_500_000 -> "1.5M", 12_300 -> "12.3K", 950 -> "950".
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FollowerTier buckets a follower count into the spreadsheet tiers.
func FollowerTier(followers int64) string {
	if followers < tierThreshold {
		return TierMicro
	}
	return TierMega
}

// ExtractEmail pulls the first e-mail address out of free text, lowercased.
// Returns "" when none is present.
func ExtractEmail(text string) string {
	if text == "" {
		return ""
	}
	return strings.ToLower(emailPattern.FindString(text))
}

// ClampCount bounds a counter to the store column range. Negative and
// unparseable inputs collapse to zero.
func ClampCount(n int64) int64 {
	if n < 0 {
		return 0
	}
	if n > MaxStoredInt {
		return MaxStoredInt
	}
	return n
}

// ParseCount reads a numeric spreadsheet cell. Cells come back from the
// workbook as strings, sometimes in float notation ("12345.0") and
// sometimes with thousands separators.
func ParseCount(cell string) int64 {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return 0
	}
	if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return ClampCount(v)
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return ClampCount(int64(f))
	}
	return 0
}

// ParseRate reads a fractional spreadsheet cell, zero on malformed input.
func ParseRate(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Engagement holds the derived per-record metrics.
type Engagement struct {
	EngagementRate    float64
	CommentConversion float64
	FollowerQuality   float64
	EstimatedCPM      float64
	CostEfficiency    float64
}

// ComputeEngagement derives display metrics from raw counters. Rates are
// percentages rounded to two decimals; CPM is capped at $150.
func ComputeEngagement(views, likes, comments, shares, followers int64) Engagement {
	var e Engagement
	if views > 0 {
		e.EngagementRate = round2(float64(likes+comments+shares) / float64(views) * 100)
		e.CommentConversion = round2(float64(comments) / float64(views) * 100)
	}
	if followers > 0 {
		e.FollowerQuality = round2(float64(likes+comments) / float64(followers) * 100)
	}
	e.EstimatedCPM = round2(math.Min(float64(followers)/1000*1.5, 150))
	e.CostEfficiency = round2(100 / (e.EstimatedCPM + 1))
	return e
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
