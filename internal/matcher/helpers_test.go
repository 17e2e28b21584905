package matcher_test

import (
	"samplesort/internal/color"
	"samplesort/internal/items"
)

func colorsOf(item items.Item) color.FamilySet {
	return color.Families(item.Colors, color.DefaultLimit)
}
