package matcher

import "samplesort/internal/items"

// StrictStrategy accepts a candidate only when the description gate and the
// color family check both pass.
type StrictStrategy struct {
	policy Policy
}

// NewStrictStrategy returns a strict strategy using the normalized policy.
func NewStrictStrategy(policy Policy) *StrictStrategy {
	return &StrictStrategy{policy: policy.normalized()}
}

// Name identifies the strategy in logs and reasons.
func (s *StrictStrategy) Name() string { return "strict" }

// FindGroup returns the group of the most recently captured accepted
// candidate.
func (s *StrictStrategy) FindGroup(target items.Item, pool []items.Item) (Match, bool) {
	var (
		best  Evidence
		found bool
	)
	for _, ev := range s.policy.evaluate(target, pool) {
		if !s.accepts(ev) {
			continue
		}
		if !found || preferRecent(ev, best) {
			best = ev
			found = true
		}
	}
	if !found {
		return Match{}, false
	}
	confidence := min(0.5+0.25*best.DescriptionScore+0.2*best.ColorOverlap, s.policy.MaxConfidence)
	return Match{
		Group:      best.Candidate.Group,
		Confidence: confidence,
		Reason:     describe(s.Name(), best, 0),
		SourceID:   best.Candidate.ID,
		Strategy:   s.Name(),
	}, true
}

// accepts applies the description gate and the color family check to the
// profiles behind ev.
func (s *StrictStrategy) accepts(ev Evidence) bool {
	return descriptionGate(ev.target.tokens, ev.candidate.tokens, s.policy.StrictMinSharedWords) &&
		ColorMatch(ev.target.families, ev.candidate.families)
}
