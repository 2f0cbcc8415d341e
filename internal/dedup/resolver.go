package dedup

import (
	"sort"

	"seedpipe/internal/record"
)

// Decision is the resolution of one duplicate group: exactly one record to
// keep and the remaining members, ordered by descending score, to discard.
// Decisions are never mutated after creation.
type Decision struct {
	Key     string
	Keep    record.Record
	Discard []record.Record
}

// Resolver groups records by identity key and elects one survivor per group.
type Resolver struct {
	scorer *record.Scorer
}

// NewResolver builds a resolver using the given quality scorer.
func NewResolver(scorer *record.Scorer) *Resolver {
	if scorer == nil {
		scorer = record.NewScorer(record.DefaultScoreWeights())
	}
	return &Resolver{scorer: scorer}
}

// Resolve returns a decision for every identity key shared by two or more
// records. Records missing both identity fields are excluded. Within a
// group, members are ranked by descending score; ties keep fetch order, so
// the earlier-fetched record wins. Running Resolve twice over the same input
// yields identical decisions.
func (r *Resolver) Resolve(records []record.Record) map[string]Decision {
	groups := make(map[string][]record.Record)
	order := make([]string, 0)

	for _, rec := range records {
		key, ok := record.IdentityKey(rec)
		if !ok {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	decisions := make(map[string]Decision)
	for _, key := range order {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		keep, discard := r.elect(members)
		decisions[key] = Decision{Key: key, Keep: keep, Discard: discard}
	}
	return decisions
}

// elect ranks group members by score. The sort is stable, so equal scores
// preserve fetch order.
func (r *Resolver) elect(members []record.Record) (record.Record, []record.Record) {
	type scored struct {
		rec   record.Record
		score int
	}
	ranked := make([]scored, len(members))
	for i, rec := range members {
		ranked[i] = scored{rec: rec, score: r.scorer.Score(rec)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	discard := make([]record.Record, 0, len(ranked)-1)
	for _, entry := range ranked[1:] {
		discard = append(discard, entry.rec)
	}
	return ranked[0].rec, discard
}
