package matcher

import (
	"math"

	"samplesort/internal/items"
)

const scoreEpsilon = 1e-9

// WeightedStrategy sums weighted description, color overlap, and time
// proximity scores and accepts the best candidate above the policy minimum.
type WeightedStrategy struct {
	policy Policy
}

// NewWeightedStrategy returns a weighted strategy using the normalized policy.
func NewWeightedStrategy(policy Policy) *WeightedStrategy {
	return &WeightedStrategy{policy: policy.normalized()}
}

// Name identifies the strategy in logs and reasons.
func (s *WeightedStrategy) Name() string { return "weighted" }

// Score combines the signals of ev into [0,1].
func (s *WeightedStrategy) Score(ev Evidence) float64 {
	p := s.policy
	total := p.WeightDescription + p.WeightColor + p.WeightTime
	score := p.WeightDescription*ev.DescriptionScore +
		p.WeightColor*ev.ColorOverlap +
		p.WeightTime*math.Max(ev.Proximity, 0)
	return score / total
}

// FindGroup returns the group of the highest scoring candidate at or above
// the minimum score. Ties prefer the most recent capture.
func (s *WeightedStrategy) FindGroup(target items.Item, pool []items.Item) (Match, bool) {
	var (
		best      Evidence
		bestScore float64
		found     bool
	)
	for _, ev := range s.policy.evaluate(target, pool) {
		score := s.Score(ev)
		if score+scoreEpsilon < s.policy.MinScore {
			continue
		}
		switch {
		case !found, score > bestScore+scoreEpsilon:
		case math.Abs(score-bestScore) <= scoreEpsilon && preferRecent(ev, best):
		default:
			continue
		}
		best, bestScore, found = ev, score, true
	}
	if !found {
		return Match{}, false
	}
	return Match{
		Group:      best.Candidate.Group,
		Confidence: min(bestScore, s.policy.MaxConfidence),
		Reason:     describe(s.Name(), best, bestScore),
		SourceID:   best.Candidate.ID,
		Score:      bestScore,
		Strategy:   s.Name(),
	}, true
}
