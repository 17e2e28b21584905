// Package color classifies color samples into a fixed set of perceptual
// families.
//
// A sample's color value is parsed (hex or rgb() notation), converted to
// hue/saturation/lightness, and matched against per-family HSL ranges in list
// order; the first matching range wins. Beige and tan are treated as label or
// background noise and white, black, and gray as neutral fallbacks.
package color
