// Package colors converts and adjusts colors given as hex strings, RGB
// triples or HSL triples.
package colors

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidHex is returned for strings that are not #rgb or #rrggbb hex colors.
	ErrInvalidHex = errors.New("invalid hex color")

	// ErrInvalidRGB is returned when a channel is outside 0-255.
	ErrInvalidRGB = errors.New("invalid RGB values, must be between 0-255")

	// ErrInvalidPercent is returned when a percentage is outside 0-100.
	ErrInvalidPercent = errors.New("percent must be between 0 and 100")
)

var hexPattern = regexp.MustCompile(`^#?([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// RGB is a color with 8-bit red, green and blue channels.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// HSL is a color as hue in degrees (0-360), saturation and lightness in percent.
type HSL struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// RGBOf builds an RGB from separate channel values.
func RGBOf(r, g, b int) RGB {
	return RGB{R: r, G: g, B: b}
}

// Valid reports whether every channel is within 0-255.
func (c RGB) Valid() bool {
	return IsValidRGB(c.R, c.G, c.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// IsValidHex reports whether s is a 3 or 6 digit hex color, with or without
// a leading '#'.
func IsValidHex(s string) bool {
	return hexPattern.MatchString(s)
}

// IsValidRGB reports whether every channel is within 0-255.
func IsValidRGB(r, g, b int) bool {
	valid := func(n int) bool { return n >= 0 && n <= 255 }

	return valid(r) && valid(g) && valid(b)
}

// HexToRGB parses a hex color. Short forms expand by doubling each digit,
// so "#f80" equals "#ff8800".
func HexToRGB(hex string) (RGB, error) {
	if !IsValidHex(hex) {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, hex)
	}

	digits := strings.TrimPrefix(hex, "#")
	if len(digits) == 3 {
		digits = string([]byte{
			digits[0], digits[0],
			digits[1], digits[1],
			digits[2], digits[2],
		})
	}

	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %w", ErrInvalidHex, err)
	}

	return RGB{
		R: int(v>>16) & 0xff,
		G: int(v>>8) & 0xff,
		B: int(v) & 0xff,
	}, nil
}

// RGBToHex formats c as a lowercase "#rrggbb" string.
func RGBToHex(c RGB) (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidRGB, c)
	}

	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B), nil
}

// Darken scales every channel of hex by 1 - percent/100.
func Darken(hex string, percent float64) (string, error) {
	return adjust(hex, percent, func(v int, p float64) float64 {
		return float64(v) * (1 - p)
	})
}

// Lighten moves every channel of hex percent/100 of the way toward 255.
func Lighten(hex string, percent float64) (string, error) {
	return adjust(hex, percent, func(v int, p float64) float64 {
		return float64(v) + float64(255-v)*p
	})
}

func adjust(hex string, percent float64, f func(v int, p float64) float64) (string, error) {
	c, err := HexToRGB(hex)
	if err != nil {
		return "", err
	}

	if percent < 0 || percent > 100 || math.IsNaN(percent) {
		return "", fmt.Errorf("%w: %v", ErrInvalidPercent, percent)
	}

	p := percent / 100

	return RGBToHex(RGB{
		R: int(math.Round(f(c.R, p))),
		G: int(math.Round(f(c.G, p))),
		B: int(math.Round(f(c.B, p))),
	})
}

// ContrastRatio returns the WCAG contrast ratio of two hex colors, from 1
// (identical luminance) to 21 (black on white). The order of the arguments
// does not matter.
func ContrastRatio(a, b string) (float64, error) {
	ca, err := HexToRGB(a)
	if err != nil {
		return 0, err
	}

	cb, err := HexToRGB(b)
	if err != nil {
		return 0, err
	}

	la, lb := luminance(ca), luminance(cb)

	return (max(la, lb) + 0.05) / (min(la, lb) + 0.05), nil
}

// luminance is the WCAG relative luminance of c.
func luminance(c RGB) float64 {
	linear := func(v int) float64 {
		n := float64(v) / 255
		if n <= 0.03928 {
			return n / 12.92
		}

		return math.Pow((n+0.055)/1.055, 2.4)
	}

	return 0.2126*linear(c.R) + 0.7152*linear(c.G) + 0.0722*linear(c.B)
}

// RandomHex returns a uniformly random "#rrggbb" color.
func RandomHex() string {
	c := RGB{
		R: rand.IntN(256), //nolint:gosec // not security sensitive
		G: rand.IntN(256), //nolint:gosec // not security sensitive
		B: rand.IntN(256), //nolint:gosec // not security sensitive
	}

	hex, _ := RGBToHex(c)

	return hex
}

// RGBToHSL converts c to HSL, rounding each component to an integer.
// Grays have hue and saturation 0.
func RGBToHSL(c RGB) HSL {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	hi := max(r, g, b)
	lo := min(r, g, b)
	l := (hi + lo) / 2

	var h, s float64

	if hi != lo {
		d := hi - lo

		if l > 0.5 {
			s = d / (2 - hi - lo)
		} else {
			s = d / (hi + lo)
		}

		switch hi {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		default:
			h = (r-g)/d + 4
		}

		h /= 6
	}

	return HSL{
		H: int(math.Round(h * 360)),
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
}
