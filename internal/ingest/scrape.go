package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"seedpipe/internal/services"
)

// Reel is one post entry from a scraper dump.
type Reel struct {
	OwnerUsername string   `json:"ownerUsername"`
	OwnerFullName string   `json:"ownerFullName"`
	OwnerID       string   `json:"ownerId"`
	Caption       string   `json:"caption"`
	URL           string   `json:"url"`
	InputURL      string   `json:"inputUrl"`
	Timestamp     string   `json:"timestamp"`
	VideoDuration float64  `json:"videoDuration"`
	CommentsCount int64    `json:"commentsCount"`
	VideoPlays    int64    `json:"videoPlayCount"`
	LikesCount    int64    `json:"likesCount"`
	Images        []string `json:"images"`
}

// Profile is one account entry from a scraper profile dump.
type Profile struct {
	Username       string `json:"username"`
	FullName       string `json:"fullName"`
	Biography      string `json:"biography"`
	FollowersCount int64  `json:"followersCount"`
	PostsCount     int64  `json:"postsCount"`
}

// ScrapeOptions tags every joined record with its provenance.
type ScrapeOptions struct {
	Company       string
	Platform      string
	ScrapingRound string
	Type          string
}

// ScrapeReport accounts for the reel/profile join.
type ScrapeReport struct {
	TotalReels      int
	TotalProfiles   int
	MatchedProfiles int
	MissingProfiles []string
}

// LoadReels reads a scraper reels dump.
func LoadReels(path string) ([]Reel, error) {
	var reels []Reel
	if err := loadJSON(path, &reels); err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "load_reels", path, err)
	}
	return reels, nil
}

// LoadProfiles reads a scraper profile dump.
func LoadProfiles(path string) ([]Profile, error) {
	var profiles []Profile
	if err := loadJSON(path, &profiles); err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "load_profiles", path, err)
	}
	return profiles, nil
}

func loadJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// Join matches reels to profiles by username and produces store-ready
// records. Reels without a profile still become records with zeroed
// profile fields; their usernames land in the report.
func Join(reels []Reel, profiles []Profile, opts ScrapeOptions) ([]Influencer, ScrapeReport) {
	if opts.Type == "" {
		opts.Type = TypeRegular
	}

	lookup := make(map[string]Profile, len(profiles))
	for _, profile := range profiles {
		lookup[profile.Username] = profile
	}

	report := ScrapeReport{TotalReels: len(reels), TotalProfiles: len(profiles)}
	influencers := make([]Influencer, 0, len(reels))
	for _, reel := range reels {
		profile, matched := lookup[reel.OwnerUsername]
		if matched {
			report.MatchedProfiles++
		} else {
			report.MissingProfiles = append(report.MissingProfiles, reel.OwnerUsername)
		}
		influencers = append(influencers, joinReel(reel, profile, matched, opts))
	}
	return influencers, report
}

func joinReel(reel Reel, profile Profile, matched bool, opts ScrapeOptions) Influencer {
	authorName := reel.OwnerFullName
	if authorName == "" {
		authorName = reel.OwnerUsername
	}
	authorID := reel.OwnerID
	if authorID == "" {
		// The store requires a non-empty author id for upserts.
		authorID = fmt.Sprintf("unknown_%s", reel.OwnerUsername)
	}

	inf := Influencer{
		AuthorName: authorName,
		AccountID:  reel.OwnerUsername,
		AuthorID:   authorID,

		VideoCaption:  reel.Caption,
		VideoURL:      reel.URL,
		VideoDuration: ClampCount(int64(reel.VideoDuration)),
		UploadTime:    reel.Timestamp,
		ProfileEntry:  reel.InputURL,

		CommentsCount: ClampCount(reel.CommentsCount),
		ViewsCount:    ClampCount(reel.VideoPlays),
		LikesCount:    ClampCount(reel.LikesCount),

		InfluencerType: opts.Type,
		Company:        opts.Company,
		Platform:       opts.Platform,
		ScrapingRound:  opts.ScrapingRound,
		Status:         "none",
	}

	if len(reel.Images) > 0 {
		inf.ThumbnailURL = reel.Images[0]
	}

	if matched {
		inf.FollowerCount = ClampCount(profile.FollowersCount)
		inf.UploadCount = ClampCount(profile.PostsCount)
		inf.ProfileIntro = profile.Biography
		inf.Email = ExtractEmail(profile.Biography)
	}

	engagement := ComputeEngagement(inf.ViewsCount, inf.LikesCount, inf.CommentsCount, inf.SharesCount, inf.FollowerCount)
	inf.EngagementRate = engagement.EngagementRate
	inf.CommentConversion = engagement.CommentConversion
	inf.FollowerQuality = engagement.FollowerQuality
	inf.EstimatedCPM = engagement.EstimatedCPM
	inf.CostEfficiency = engagement.CostEfficiency
	inf.FollowerTier = FollowerTier(inf.FollowerCount)

	inf.CommentsCountFormatted = FormatCount(inf.CommentsCount)
	inf.ViewsCountFormatted = FormatCount(inf.ViewsCount)
	inf.LikesCountFormatted = FormatCount(inf.LikesCount)
	inf.SharesCountFormatted = FormatCount(inf.SharesCount)
	inf.FollowerCountFormatted = FormatCount(inf.FollowerCount)

	return inf
}
