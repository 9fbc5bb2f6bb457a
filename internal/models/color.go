package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGB colour with alpha in [0,1].
type Color struct {
	R, G, B uint8
	A       float64
}

// Transparent is the zero colour; surfaces skip fills and strokes using it.
var Transparent = Color{}

// RGB returns an opaque colour.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// RGBA returns a colour with the given alpha.
func RGBA(r, g, b uint8, a float64) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Hex parses "#rrggbb". Malformed input yields Transparent.
func Hex(s string) Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Transparent
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Transparent
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v))
}

// IsTransparent reports whether the colour paints nothing.
func (c Color) IsTransparent() bool {
	return c.A <= 0
}

// HexString formats the colour as "#rrggbb", ignoring alpha.
func (c Color) HexString() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// CSS formats the colour as "#rrggbb" when opaque and "rgba(...)" otherwise.
func (c Color) CSS() string {
	if c.A >= 1 {
		return c.HexString()
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'f', -1, 64))
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.CSS()), nil
}
