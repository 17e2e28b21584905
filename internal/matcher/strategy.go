package matcher

import (
	"fmt"
	"strings"
	"time"

	"samplesort/internal/color"
	"samplesort/internal/items"
	"samplesort/internal/textutil"
)

// Strategy finds the group an ungrouped target should inherit from pool.
// A miss is reported as (Match{}, false), never as an error.
type Strategy interface {
	Name() string
	FindGroup(target items.Item, pool []items.Item) (Match, bool)
}

// Match is an accepted inference.
type Match struct {
	Group      string
	Confidence float64
	Reason     string
	SourceID   string
	Score      float64
	Strategy   string
}

// Evidence holds the signals computed between a target and one candidate.
type Evidence struct {
	Candidate        items.Item
	Delta            time.Duration
	SharedWords      int
	DescriptionScore float64
	SharedColors     []color.Family
	ColorOverlap     float64
	ColorMatch       bool
	Proximity        float64

	target    profile
	candidate profile
}

type profile struct {
	tokens   []string
	families color.FamilySet
}

func newProfile(item items.Item, colorLimit int) profile {
	return profile{
		tokens:   textutil.DescriptionTokens(item.Description),
		families: color.Families(item.Colors, colorLimit),
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// InWindow reports whether b was captured strictly inside window of a.
func InWindow(a, b time.Time, window time.Duration) bool {
	return absDuration(a.Sub(b)) < window
}

// eligible reports whether candidate may lend its group to target.
func (p Policy) eligible(target, candidate items.Item) bool {
	if candidate.ID == target.ID || !candidate.IsGrouped() {
		return false
	}
	if candidate.Status == items.StatusInvalidGroup && !p.InheritInvalidGroups {
		return false
	}
	return InWindow(target.CapturedAt, candidate.CapturedAt, p.Window)
}

// evaluate computes every signal for each eligible candidate.
func (p Policy) evaluate(target items.Item, pool []items.Item) []Evidence {
	if target.IsGrouped() {
		return nil
	}
	targetProfile := newProfile(target, p.ColorLimit)
	out := make([]Evidence, 0, len(pool))
	for _, candidate := range pool {
		if !p.eligible(target, candidate) {
			continue
		}
		cp := newProfile(candidate, p.ColorLimit)
		shared, _ := colorOverlap(targetProfile.families, cp.families)
		delta := absDuration(target.CapturedAt.Sub(candidate.CapturedAt))
		out = append(out, Evidence{
			Candidate:        candidate,
			Delta:            delta,
			SharedWords:      textutil.SharedTokens(targetProfile.tokens, cp.tokens),
			DescriptionScore: descriptionScore(targetProfile.tokens, cp.tokens),
			SharedColors:     shared,
			ColorOverlap:     ColorOverlap(targetProfile.families, cp.families),
			ColorMatch:       ColorMatch(targetProfile.families, cp.families),
			Proximity:        1 - float64(delta)/float64(p.Window),
			target:           targetProfile,
			candidate:        cp,
		})
	}
	return out
}

// preferRecent orders accepted candidates: most recently captured first,
// then nearest in time, then lowest ID.
func preferRecent(a, b Evidence) bool {
	if !a.Candidate.CapturedAt.Equal(b.Candidate.CapturedAt) {
		return a.Candidate.CapturedAt.After(b.Candidate.CapturedAt)
	}
	if a.Delta != b.Delta {
		return a.Delta < b.Delta
	}
	return a.Candidate.ID < b.Candidate.ID
}

func describe(strategy string, ev Evidence, score float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d shared word", strategy, ev.SharedWords)
	if ev.SharedWords != 1 {
		b.WriteByte('s')
	}
	fmt.Fprintf(&b, " (description %.2f)", ev.DescriptionScore)
	if len(ev.SharedColors) > 0 {
		names := make([]string, len(ev.SharedColors))
		for i, f := range ev.SharedColors {
			names[i] = string(f)
		}
		fmt.Fprintf(&b, ", colors %s %.0f%% overlap", strings.Join(names, "/"), ev.ColorOverlap*100)
	} else {
		b.WriteString(", no color match")
	}
	fmt.Fprintf(&b, ", captured %s apart from %s", ev.Delta.Round(time.Millisecond), ev.Candidate.ID)
	if score > 0 {
		fmt.Fprintf(&b, ", score %.2f", score)
	}
	return b.String()
}
