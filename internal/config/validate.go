package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGrouping(); err != nil {
		return err
	}
	if err := c.validateCodes(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGrouping() error {
	g := c.Grouping
	for name, weight := range map[string]float64{
		"grouping.weight_description": g.WeightDescription,
		"grouping.weight_color":       g.WeightColor,
		"grouping.weight_time":        g.WeightTime,
	} {
		if weight < 0 || weight > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if total := g.WeightDescription + g.WeightColor + g.WeightTime; total <= 0 {
		return errors.New("grouping weights must not all be zero")
	}
	if g.WeightedMinScore <= 0 || g.WeightedMinScore >= 1 {
		return errors.New("grouping.weighted_min_score must be between 0 and 1 (exclusive)")
	}
	if g.ColorLimit > 3 {
		return errors.New("grouping.color_limit must be at most 3")
	}
	return nil
}

func (c *Config) validateCodes() error {
	for _, pattern := range c.Codes.Patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("codes.patterns: invalid expression %q: %w", pattern, err)
		}
	}
	return nil
}
