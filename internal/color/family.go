package color

// Family is a named perceptual color bucket.
type Family string

const (
	Red    Family = "red"
	Orange Family = "orange"
	Yellow Family = "yellow"
	Green  Family = "green"
	Blue   Family = "blue"
	Purple Family = "purple"
	Brown  Family = "brown"
	Beige  Family = "beige"
	Tan    Family = "tan"
	Gray   Family = "gray"
	Black  Family = "black"
	White  Family = "white"
	None   Family = ""
)

// Ignored reports whether the family is treated as label/background noise.
func (f Family) Ignored() bool {
	return f == Beige || f == Tan
}

// Neutral reports whether the family only participates in the neutral
// fallback tier.
func (f Family) Neutral() bool {
	return f == White || f == Black || f == Gray
}

// span is an inclusive-exclusive interval; hue is in degrees, saturation and
// lightness in [0,1].
type span struct {
	min, max float64
}

func (s span) contains(v float64) bool {
	return v >= s.min && v < s.max
}

// hslRange describes one region of HSL space.
type hslRange struct {
	hue        span
	saturation span
	lightness  span
}

func (r hslRange) contains(c HSL) bool {
	return r.hue.contains(c.H) && r.saturation.contains(c.S) && r.lightness.contains(c.L)
}

type familyRanges struct {
	family Family
	ranges []hslRange
}

var (
	anyHue = span{0, 360.01}
	anySat = span{0, 1.01}
)

// catalog is searched in order; the first family with a matching range wins.
var catalog = []familyRanges{
	{Red, []hslRange{
		{span{0, 15}, span{0.25, 1.01}, span{0.12, 0.85}},
		{span{345, 360.01}, span{0.25, 1.01}, span{0.12, 0.85}},
	}},
	{Orange, []hslRange{{span{15, 45}, span{0.6, 1.01}, span{0.45, 0.85}}}},
	{Yellow, []hslRange{{span{45, 70}, span{0.55, 1.01}, span{0.3, 0.9}}}},
	{Green, []hslRange{{span{70, 170}, span{0.15, 1.01}, span{0.12, 0.9}}}},
	{Blue, []hslRange{{span{170, 260}, span{0.15, 1.01}, span{0.12, 0.9}}}},
	{Purple, []hslRange{{span{260, 345}, span{0.15, 1.01}, span{0.12, 0.9}}}},
	{Brown, []hslRange{{span{10, 50}, span{0.2, 1.01}, span{0.12, 0.45}}}},
	{Beige, []hslRange{{span{30, 70}, span{0.15, 0.75}, span{0.75, 0.94}}}},
	{Tan, []hslRange{{span{20, 45}, span{0.15, 0.6}, span{0.45, 0.75}}}},
	{Gray, []hslRange{{anyHue, span{0, 0.15}, span{0.12, 0.92}}}},
	{Black, []hslRange{{anyHue, anySat, span{0, 0.12}}}},
	{White, []hslRange{{anyHue, anySat, span{0.92, 1.01}}}},
}

// ClassifyHSL returns the first family whose range contains c.
func ClassifyHSL(c HSL) (Family, bool) {
	for _, entry := range catalog {
		for _, r := range entry.ranges {
			if r.contains(c) {
				return entry.family, true
			}
		}
	}
	return None, false
}

// Classify parses value and returns its family. Unparsable values and values
// outside every range report ok == false.
func Classify(value string) (Family, bool) {
	hsl, err := ParseHSL(value)
	if err != nil {
		return None, false
	}
	return ClassifyHSL(hsl)
}
