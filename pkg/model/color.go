package model

import (
	"fmt"
	"strconv"
)

// Color is an RGBA color with components in the 0..1 range.
type Color struct {
	R, G, B, A float32
}

var White = Color{1, 1, 1, 1}

// ParseHexColor parses "rrggbbaa" or "rrggbb" (alpha 1) as written in JSON
// skeleton files.
func ParseHexColor(s string) (Color, error) {
	if len(s) != 8 && len(s) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(s) == 6 {
		v = v<<8 | 0xff
	}
	return Color{
		R: float32(v>>24&0xff) / 255,
		G: float32(v>>16&0xff) / 255,
		B: float32(v>>8&0xff) / 255,
		A: float32(v&0xff) / 255,
	}, nil
}

// Hex formats the color as "rrggbbaa".
func (c Color) Hex() string {
	return fmt.Sprintf("%02x%02x%02x%02x", c.byte(c.R), c.byte(c.G), c.byte(c.B), c.byte(c.A))
}

// HexRGB formats the color as "rrggbb".
func (c Color) HexRGB() string {
	return fmt.Sprintf("%02x%02x%02x", c.byte(c.R), c.byte(c.G), c.byte(c.B))
}

func (c Color) byte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Mul multiplies two colors component-wise.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A}
}
