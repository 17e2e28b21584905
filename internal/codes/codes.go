// Package codes decides whether an identifier is a well-formed sample code.
//
// A value matching one of the configured expressions is authoritative: it
// becomes the item's group directly. Anything else is either discarded
// (extraction) or kept but flagged invalid (manual edits).
package codes

import (
	"fmt"
	"regexp"
	"strings"

	"samplesort/internal/config"
)

// Validator checks identifiers against a fixed set of code-format rules.
type Validator struct {
	patterns []*regexp.Regexp
}

// NewValidator compiles the expressions. An empty list yields a validator that
// rejects everything.
func NewValidator(patterns []string) (*Validator, error) {
	v := &Validator{}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile code pattern %q: %w", pattern, err)
		}
		v.patterns = append(v.patterns, re)
	}
	return v, nil
}

// NewFromConfig builds a validator from the [codes] section.
func NewFromConfig(cfg *config.Config) (*Validator, error) {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return NewValidator(cfg.Codes.Patterns)
}

// Normalize trims the value and collapses inner whitespace runs to a single
// space.
func Normalize(code string) string {
	return strings.Join(strings.Fields(code), " ")
}

// Valid reports whether the normalized code matches any rule.
func (v *Validator) Valid(code string) bool {
	if v == nil {
		return false
	}
	code = Normalize(code)
	if code == "" {
		return false
	}
	for _, re := range v.patterns {
		if re.MatchString(code) {
			return true
		}
	}
	return false
}
