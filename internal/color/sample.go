package color

import (
	"encoding/json"
	"strings"
)

// DefaultLimit is how many of an item's most dominant colors are classified.
const DefaultLimit = 3

// Sample is one dominant color reported by the extraction collaborator.
type Sample struct {
	Value string `json:"colorValue"`
	Name  string `json:"colorName,omitempty"`
}

// ParseSamples decodes the JSON list persisted for an item. Malformed input
// yields an empty list.
func ParseSamples(raw string) []Sample {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var samples []Sample
	if err := json.Unmarshal([]byte(raw), &samples); err != nil {
		return nil
	}
	return samples
}

// EncodeSamples renders samples as the JSON list stored alongside an item.
func EncodeSamples(samples []Sample) string {
	if len(samples) == 0 {
		return ""
	}
	data, err := json.Marshal(samples)
	if err != nil {
		return ""
	}
	return string(data)
}

// FamilySet is the classified view of an item's colors.
type FamilySet struct {
	Meaningful []Family
	Neutral    []Family
}

// Empty reports whether no usable family was found.
func (s FamilySet) Empty() bool {
	return len(s.Meaningful) == 0 && len(s.Neutral) == 0
}

// Families classifies the first limit samples, drops ignored families and
// unclassifiable values, and splits the remainder into meaningful and
// neutral families without duplicates.
func Families(samples []Sample, limit int) FamilySet {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(samples) > limit {
		samples = samples[:limit]
	}
	var set FamilySet
	seen := make(map[Family]struct{}, len(samples))
	for _, sample := range samples {
		family, ok := Classify(sample.Value)
		if !ok || family.Ignored() {
			continue
		}
		if _, dup := seen[family]; dup {
			continue
		}
		seen[family] = struct{}{}
		if family.Neutral() {
			set.Neutral = append(set.Neutral, family)
		} else {
			set.Meaningful = append(set.Meaningful, family)
		}
	}
	return set
}
