package record

import (
	"time"

	"github.com/araddon/dateparse"
)

// completenessFields each contribute one point when populated.
var completenessFields = []string{
	"email",
	"video_caption",
	"follower_count",
	"views_count",
	"likes_count",
	"thumbnail_url",
}

// engagementFields contribute a magnitude-proportional bonus.
var engagementFields = []string{
	"follower_count",
	"views_count",
	"likes_count",
}

// statusSentinel marks a status that was never curated.
const statusSentinel = "none"

// ScoreWeights configures the tunable parts of the quality score. Earlier
// pipeline iterations disagreed on the age and engagement caps; they are
// configuration here rather than separate scorers.
type ScoreWeights struct {
	// AgeBonusCap limits the +1-per-30-days age bonus. Zero disables it and
	// falls back to a flat +1 for any parseable created_at.
	AgeBonusCap int
	// EngagementBonusCap limits the per-field engagement bonus.
	EngagementBonusCap int
	// EngagementUnit is the count that earns one engagement point.
	EngagementUnit int64
}

// DefaultScoreWeights returns the weights used by the dedupe command.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		AgeBonusCap:        5,
		EngagementBonusCap: 3,
		EngagementUnit:     100_000,
	}
}

// Scorer assigns a non-negative data-quality score to a record. Scoring is a
// pure function of the record's own fields; malformed numeric or timestamp
// values contribute zero instead of failing.
type Scorer struct {
	weights ScoreWeights

	// Now is overridable for deterministic age-bonus tests.
	Now func() time.Time
}

// NewScorer builds a scorer with the given weights. Zero-valued weights fall
// back to the defaults.
func NewScorer(weights ScoreWeights) *Scorer {
	defaults := DefaultScoreWeights()
	if weights.EngagementUnit <= 0 {
		weights.EngagementUnit = defaults.EngagementUnit
	}
	if weights.EngagementBonusCap <= 0 {
		weights.EngagementBonusCap = defaults.EngagementBonusCap
	}
	return &Scorer{weights: weights, Now: time.Now}
}

// Score ranks the record's data quality. Higher means better and therefore
// worth keeping when duplicates collide.
func (s *Scorer) Score(r Record) int {
	score := 0

	for _, field := range completenessFields {
		if r.HasText(field) {
			score++
		}
	}

	if status := r.Text("status"); r.Truthy("status") && status != statusSentinel {
		score += 2
	}

	if r.Truthy("saved") {
		score += 3
	}

	score += s.ageBonus(r)

	for _, field := range engagementFields {
		value, ok := r.Int(field)
		if !ok || value <= 0 {
			continue
		}
		bonus := int(value / s.weights.EngagementUnit)
		if bonus > s.weights.EngagementBonusCap {
			bonus = s.weights.EngagementBonusCap
		}
		score += bonus
	}

	return score
}

// ageBonus prefers older records, which tend to carry more curation history.
func (s *Scorer) ageBonus(r Record) int {
	raw := r.Text("created_at")
	if raw == "" {
		return 0
	}
	created, err := dateparse.ParseAny(raw)
	if err != nil {
		return 0
	}
	if s.weights.AgeBonusCap <= 0 {
		return 1
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	days := int(now().Sub(created).Hours() / 24)
	if days < 0 {
		days = 0
	}
	bonus := days / 30
	if bonus > s.weights.AgeBonusCap {
		bonus = s.weights.AgeBonusCap
	}
	return bonus
}
