package ingest_test

import (
	"math"
	"testing"

	"seedpipe/internal/ingest"
)

func TestCombineWeightsAveragesBySize(t *testing.T) {
	regular := ingest.Summary{
		TotalInfluencers:  3,
		TotalViews:        300,
		AvgEngagementRate: 2.0,
		AvgCPM:            10.0,
	}
	sales := ingest.Summary{
		TotalInfluencers:  1,
		TotalViews:        100,
		AvgEngagementRate: 6.0,
		AvgCPM:            30.0,
	}

	combined := ingest.Combine(regular, sales)
	if combined.TotalInfluencers != 4 || combined.TotalViews != 400 {
		t.Fatalf("totals wrong: %+v", combined)
	}
	// (2*3 + 6*1) / 4 = 3.0
	if math.Abs(combined.AvgEngagementRate-3.0) > 1e-9 {
		t.Fatalf("avg engagement = %v, want 3.0", combined.AvgEngagementRate)
	}
	if math.Abs(combined.AvgCPM-15.0) > 1e-9 {
		t.Fatalf("avg cpm = %v, want 15.0", combined.AvgCPM)
	}
}

func TestCombineEmpty(t *testing.T) {
	combined := ingest.Combine(ingest.Summary{}, ingest.Summary{})
	if combined.TotalInfluencers != 0 || combined.AvgEngagementRate != 0 {
		t.Fatalf("empty combine must stay zero: %+v", combined)
	}
}

func TestRenumberPreservesOriginalIDs(t *testing.T) {
	batch := []ingest.Influencer{
		{ID: 17, AccountID: "a"},
		{ID: 3, AccountID: "b"},
		{ID: 99, AccountID: "c"},
	}

	ingest.Renumber(batch)
	for i, inf := range batch {
		if inf.ID != int64(i+1) {
			t.Fatalf("record %d id = %d, want %d", i, inf.ID, i+1)
		}
	}
	if batch[0].OriginalID != 17 || batch[1].OriginalID != 3 || batch[2].OriginalID != 99 {
		t.Fatalf("original ids lost: %+v", batch)
	}
}

func TestSummarize(t *testing.T) {
	batch := []ingest.Influencer{
		{ViewsCount: 100, FollowerCount: 10, LikesCount: 5, EngagementRate: 2, EstimatedCPM: 4},
		{ViewsCount: 300, FollowerCount: 30, LikesCount: 15, EngagementRate: 4, EstimatedCPM: 8},
	}

	summary := ingest.Summarize(batch)
	if summary.TotalViews != 400 || summary.TotalFollowers != 40 || summary.TotalLikes != 20 {
		t.Fatalf("totals wrong: %+v", summary)
	}
	if summary.AvgEngagementRate != 3 || summary.AvgCPM != 6 {
		t.Fatalf("averages wrong: %+v", summary)
	}
}
