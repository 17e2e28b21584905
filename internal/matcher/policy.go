package matcher

import (
	"time"

	"samplesort/internal/color"
	"samplesort/internal/config"
)

// Policy centralizes matching windows, weights, and thresholds.
type Policy struct {
	Window               time.Duration
	ColorLimit           int
	StrictMinSharedWords int
	WeightDescription    float64
	WeightColor          float64
	WeightTime           float64
	MinScore             float64
	MaxConfidence        float64
	InheritInvalidGroups bool
}

// DefaultPolicy returns the defaults shared by both strategies.
func DefaultPolicy() Policy {
	return Policy{
		Window:               3 * time.Minute,
		ColorLimit:           color.DefaultLimit,
		StrictMinSharedWords: 2,
		WeightDescription:    0.5,
		WeightColor:          0.3,
		WeightTime:           0.2,
		MinScore:             0.55,
		MaxConfidence:        0.95,
		InheritInvalidGroups: true,
	}
}

// PolicyFromConfig maps the [grouping] section onto a policy.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return DefaultPolicy()
	}
	g := cfg.Grouping
	return Policy{
		Window:               cfg.Window(),
		ColorLimit:           g.ColorLimit,
		StrictMinSharedWords: g.StrictMinSharedWords,
		WeightDescription:    g.WeightDescription,
		WeightColor:          g.WeightColor,
		WeightTime:           g.WeightTime,
		MinScore:             g.WeightedMinScore,
		MaxConfidence:        DefaultPolicy().MaxConfidence,
		InheritInvalidGroups: g.InheritInvalidGroups,
	}.normalized()
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()

	if p.Window <= 0 {
		p.Window = d.Window
	}
	if p.ColorLimit <= 0 || p.ColorLimit > color.DefaultLimit {
		p.ColorLimit = d.ColorLimit
	}
	if p.StrictMinSharedWords <= 0 {
		p.StrictMinSharedWords = d.StrictMinSharedWords
	}
	if p.WeightDescription < 0 || p.WeightColor < 0 || p.WeightTime < 0 ||
		p.WeightDescription+p.WeightColor+p.WeightTime <= 0 {
		p.WeightDescription = d.WeightDescription
		p.WeightColor = d.WeightColor
		p.WeightTime = d.WeightTime
	}
	if p.MinScore <= 0 || p.MinScore >= 1 {
		p.MinScore = d.MinScore
	}
	if p.MaxConfidence <= 0 || p.MaxConfidence >= 1 {
		p.MaxConfidence = d.MaxConfidence
	}
	return p
}
