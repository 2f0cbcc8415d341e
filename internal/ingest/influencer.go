// Package ingest turns scraping exports into store-ready influencer
// records: Excel workbooks with the Korean analyst headers, and raw
// scraper JSON dumps (reels plus profiles).
package ingest

import "fmt"

// Influencer types carried on every ingested record.
const (
	TypeRegular = "regular"
	TypeSales   = "sales"
)

// Influencer is one store-ready record. JSON tags match the store's
// column names.
type Influencer struct {
	ID         int64 `json:"id"`
	OriginalID int64 `json:"original_id,omitempty"`

	AuthorName   string `json:"author_name"`
	AccountID    string `json:"account_id"`
	AuthorID     string `json:"author_id"`
	ProfileIntro string `json:"profile_intro"`
	Email        string `json:"email,omitempty"`

	VideoCaption  string `json:"video_caption"`
	VideoURL      string `json:"video_url"`
	VideoDuration int64  `json:"video_duration"`
	UploadTime    string `json:"upload_time"`
	ThumbnailURL  string `json:"thumbnail_url"`
	R2Thumbnail   string `json:"r2_thumbnail_url,omitempty"`

	MusicTitle  string `json:"music_title"`
	MusicArtist string `json:"music_artist"`

	FollowerCount          int64  `json:"follower_count"`
	FollowerCountFormatted string `json:"follower_count_formatted"`
	UploadCount            int64  `json:"upload_count"`
	LikesCount             int64  `json:"likes_count"`
	LikesCountFormatted    string `json:"likes_count_formatted"`
	SharesCount            int64  `json:"shares_count"`
	SharesCountFormatted   string `json:"shares_count_formatted"`
	CommentsCount          int64  `json:"comments_count"`
	CommentsCountFormatted string `json:"comments_count_formatted"`
	ViewsCount             int64  `json:"views_count"`
	ViewsCountFormatted    string `json:"views_count_formatted"`

	EngagementRate    float64 `json:"engagement_rate"`
	ViewRatio         float64 `json:"view_ratio"`
	CommentConversion float64 `json:"comment_conversion"`
	FollowerQuality   float64 `json:"follower_quality"`
	EstimatedCPM      float64 `json:"estimated_cpm"`
	CostEfficiency    float64 `json:"cost_efficiency"`
	FollowerTier      string  `json:"follower_tier"`

	InfluencerType string `json:"influencer_type"`
	Priority       string `json:"priority,omitempty"`
	ProfileEntry   string `json:"profile_entry,omitempty"`

	Company       string `json:"company,omitempty"`
	Platform      string `json:"platform,omitempty"`
	ScrapingRound string `json:"scraping_round,omitempty"`

	Status string `json:"status"`
	Saved  bool   `json:"saved"`
}

// Summary aggregates one ingested batch.
type Summary struct {
	TotalInfluencers  int     `json:"total_influencers"`
	TotalViews        int64   `json:"total_views"`
	TotalFollowers    int64   `json:"total_followers"`
	TotalLikes        int64   `json:"total_likes"`
	TotalComments     int64   `json:"total_comments"`
	TotalShares       int64   `json:"total_shares"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	AvgCPM            float64 `json:"avg_cpm"`
}

// Summarize computes batch totals and simple averages.
func Summarize(influencers []Influencer) Summary {
	summary := Summary{TotalInfluencers: len(influencers)}
	for _, inf := range influencers {
		summary.TotalViews += inf.ViewsCount
		summary.TotalFollowers += inf.FollowerCount
		summary.TotalLikes += inf.LikesCount
		summary.TotalComments += inf.CommentsCount
		summary.TotalShares += inf.SharesCount
		summary.AvgEngagementRate += inf.EngagementRate
		summary.AvgCPM += inf.EstimatedCPM
	}
	if n := float64(len(influencers)); n > 0 {
		summary.AvgEngagementRate /= n
		summary.AvgCPM /= n
	}
	return summary
}

// Combine merges per-batch summaries. Averages are weighted by batch size
// so a small batch cannot skew the combined rate.
func Combine(summaries ...Summary) Summary {
	var combined Summary
	var weighted struct{ engagement, cpm float64 }
	for _, s := range summaries {
		combined.TotalInfluencers += s.TotalInfluencers
		combined.TotalViews += s.TotalViews
		combined.TotalFollowers += s.TotalFollowers
		combined.TotalLikes += s.TotalLikes
		combined.TotalComments += s.TotalComments
		combined.TotalShares += s.TotalShares
		weighted.engagement += s.AvgEngagementRate * float64(s.TotalInfluencers)
		weighted.cpm += s.AvgCPM * float64(s.TotalInfluencers)
	}
	if combined.TotalInfluencers > 0 {
		combined.AvgEngagementRate = weighted.engagement / float64(combined.TotalInfluencers)
		combined.AvgCPM = weighted.cpm / float64(combined.TotalInfluencers)
	}
	return combined
}

// Renumber assigns sequential ids starting at 1 across a merged batch,
// preserving each record's source id in OriginalID.
func Renumber(influencers []Influencer) {
	for i := range influencers {
		influencers[i].OriginalID = influencers[i].ID
		influencers[i].ID = int64(i + 1)
	}
}

func (i *Influencer) String() string {
	return fmt.Sprintf("@%s (%s)", i.AccountID, i.AuthorName)
}
