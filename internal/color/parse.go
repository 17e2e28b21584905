package color

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrMalformed reports a color value that could not be parsed.
var ErrMalformed = errors.New("malformed color value")

// HSL is a color in hue (degrees), saturation, and lightness (0..1).
type HSL struct {
	H float64
	S float64
	L float64
}

// ToHSL converts an 8-bit RGB triple to HSL.
func ToHSL(r, g, b uint8) HSL {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()
	return HSL{H: h, S: s, L: l}
}

// ParseHSL accepts "#rgb", "#rrggbb" (leading '#' optional) and
// "rgb(r, g, b)" notations.
func ParseHSL(value string) (HSL, error) {
	c, err := parse(value)
	if err != nil {
		return HSL{}, err
	}
	h, s, l := c.Hsl()
	return HSL{H: h, S: s, L: l}, nil
}

func parse(value string) (colorful.Color, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return colorful.Color{}, ErrMalformed
	}
	if strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")") {
		return parseRGBFunc(v[4 : len(v)-1])
	}
	v = strings.TrimPrefix(v, "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return colorful.Color{}, fmt.Errorf("%w: %q", ErrMalformed, value)
	}
	c, err := colorful.Hex("#" + v)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: %q: %v", ErrMalformed, value, err)
	}
	return c, nil
}

func parseRGBFunc(body string) (colorful.Color, error) {
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return colorful.Color{}, fmt.Errorf("%w: rgb(%s)", ErrMalformed, body)
	}
	var channels [3]float64
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 255 {
			return colorful.Color{}, fmt.Errorf("%w: rgb(%s)", ErrMalformed, body)
		}
		channels[i] = float64(n) / 255
	}
	return colorful.Color{R: channels[0], G: channels[1], B: channels[2]}, nil
}
