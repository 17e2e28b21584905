package matcher

import (
	"samplesort/internal/color"
	"samplesort/internal/textutil"
)

// Description score tiers.
const (
	descIdentical = 1.0
	descStrong    = 0.8
	descPartial   = 0.6
	descWeak      = 0.3
)

// DescriptionScore grades how well two descriptions agree: identical
// normalized text scores 1.0, two or more shared meaningful words 0.8, an
// overlap covering at least half of the longer description 0.6, any shared
// word 0.3. An absent description on either side scores zero.
func DescriptionScore(a, b string) float64 {
	return descriptionScore(textutil.DescriptionTokens(a), textutil.DescriptionTokens(b))
}

func descriptionScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if sameTokens(a, b) {
		return descIdentical
	}
	shared := textutil.SharedTokens(a, b)
	longest := max(len(a), len(b))
	switch {
	case shared >= 2:
		return descStrong
	case float64(shared)/float64(longest) >= 0.5:
		return descPartial
	case shared >= 1:
		return descWeak
	default:
		return 0
	}
}

func sameTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DescriptionGate reports whether two descriptions share at least minShared
// meaningful words.
func DescriptionGate(a, b string, minShared int) bool {
	return descriptionGate(textutil.DescriptionTokens(a), textutil.DescriptionTokens(b), minShared)
}

// descriptionGate is DescriptionGate over already tokenized descriptions. A
// non-positive threshold falls back to the default.
func descriptionGate(a, b []string, minShared int) bool {
	if minShared <= 0 {
		minShared = DefaultPolicy().StrictMinSharedWords
	}
	return textutil.SharedTokens(a, b) >= minShared
}

// colorTier picks the family lists two sides are compared on. Meaningful
// families are compared when both sides have them; neutral families only
// when neither side has a meaningful one.
func colorTier(a, b color.FamilySet) ([]color.Family, []color.Family, bool) {
	switch {
	case len(a.Meaningful) > 0 && len(b.Meaningful) > 0:
		return a.Meaningful, b.Meaningful, true
	case len(a.Meaningful) == 0 && len(b.Meaningful) == 0 && len(a.Neutral) > 0 && len(b.Neutral) > 0:
		return a.Neutral, b.Neutral, true
	default:
		return nil, nil, false
	}
}

// ColorMatch reports whether two family sets share a family in the
// applicable tier. A side with meaningful colors never matches a side with
// only neutral ones.
func ColorMatch(a, b color.FamilySet) bool {
	shared, _ := colorOverlap(a, b)
	return len(shared) > 0
}

// ColorOverlap returns shared/union of the families in the applicable tier,
// zero when no tier applies.
func ColorOverlap(a, b color.FamilySet) float64 {
	_, ratio := colorOverlap(a, b)
	return ratio
}

func colorOverlap(a, b color.FamilySet) ([]color.Family, float64) {
	left, right, ok := colorTier(a, b)
	if !ok {
		return nil, 0
	}
	inRight := make(map[color.Family]struct{}, len(right))
	for _, f := range right {
		inRight[f] = struct{}{}
	}
	var shared []color.Family
	union := len(right)
	for _, f := range left {
		if _, ok := inRight[f]; ok {
			shared = append(shared, f)
			continue
		}
		union++
	}
	if union == 0 {
		return nil, 0
	}
	return shared, float64(len(shared)) / float64(union)
}
