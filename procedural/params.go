package procedural

import (
	"fmt"

	"github.com/atlas3d/assetstream/errors"
)

// Texture dimensions accepted by the generators.
const (
	MinDimension = 1
	MaxDimension = 8192
)

// Kind selects the synthesis algorithm.
type Kind string

const (
	// KindGradient is a two-color linear or radial gradient
	KindGradient Kind = "gradient"
	// KindNoise is seeded value noise on an integer lattice
	KindNoise Kind = "noise"
	// KindPattern is a cell-based grid, stripe, or dot pattern
	KindPattern Kind = "pattern"
	// KindParticle is a radial falloff sprite for particle systems
	KindParticle Kind = "particle"
)

// Valid reports whether k names a known generator.
func (k Kind) Valid() bool {
	switch k {
	case KindGradient, KindNoise, KindPattern, KindParticle:
		return true
	}
	return false
}

// Direction orients a gradient.
type Direction string

const (
	// DirectionHorizontal blends left to right
	DirectionHorizontal Direction = "horizontal"
	// DirectionVertical blends top to bottom
	DirectionVertical Direction = "vertical"
	// DirectionRadial blends outward from the image center
	DirectionRadial Direction = "radial"
)

// Style selects a pattern layout.
type Style string

const (
	// StyleGrid is a checkerboard of cells
	StyleGrid Style = "grid"
	// StyleStripes alternates rows of cells
	StyleStripes Style = "stripes"
	// StyleDots draws a filled circle per cell
	StyleDots Style = "dots"
)

// Params describes one procedural texture. Kind selects the algorithm;
// only the fields relevant to that kind are validated and contribute to
// the cache key.
type Params struct {
	Kind   Kind `json:"kind"`
	Width  int  `json:"width"`
	Height int  `json:"height"`

	// Gradient and pattern colors. ColorA is the foreground for patterns.
	ColorA    [4]uint8  `json:"color_a,omitempty"`
	ColorB    [4]uint8  `json:"color_b,omitempty"`
	Direction Direction `json:"direction,omitempty"`

	// Noise lattice controls. Frequency is the number of lattice cells
	// across each axis; Amplitude scales the output intensity.
	Seed      int64   `json:"seed,omitempty"`
	Frequency float64 `json:"frequency,omitempty"`
	Amplitude float64 `json:"amplitude,omitempty"`

	// Pattern layout.
	Style    Style `json:"style,omitempty"`
	CellSize int   `json:"cell_size,omitempty"`

	// Particle sprite. Center is in normalized [0,1] image coordinates,
	// Radius in (0,1] as a fraction of half the smaller dimension, and
	// Softness in (0,1] with 1 the softest falloff.
	Center    [2]float64 `json:"center,omitempty"`
	Radius    float64    `json:"radius,omitempty"`
	Softness  float64    `json:"softness,omitempty"`
	BaseColor [4]uint8   `json:"base_color,omitempty"`
}

// Validate checks params before any pixels are produced. Generation fails
// fast on the first invalid field and never emits partial output.
func (p Params) Validate() error {
	if !p.Kind.Valid() {
		return invalid(fmt.Sprintf("unknown kind %q", p.Kind))
	}
	if p.Width < MinDimension || p.Width > MaxDimension {
		return invalid(fmt.Sprintf("width %d outside [%d, %d]", p.Width, MinDimension, MaxDimension))
	}
	if p.Height < MinDimension || p.Height > MaxDimension {
		return invalid(fmt.Sprintf("height %d outside [%d, %d]", p.Height, MinDimension, MaxDimension))
	}

	switch p.Kind {
	case KindGradient:
		switch p.Direction {
		case DirectionHorizontal, DirectionVertical, DirectionRadial:
		default:
			return invalid(fmt.Sprintf("unknown direction %q", p.Direction))
		}
	case KindNoise:
		if p.Frequency <= 0 {
			return invalid(fmt.Sprintf("frequency %g must be positive", p.Frequency))
		}
		if p.Amplitude <= 0 || p.Amplitude > 1 {
			return invalid(fmt.Sprintf("amplitude %g outside (0, 1]", p.Amplitude))
		}
	case KindPattern:
		switch p.Style {
		case StyleGrid, StyleStripes, StyleDots:
		default:
			return invalid(fmt.Sprintf("unknown style %q", p.Style))
		}
		if p.CellSize < 1 {
			return invalid(fmt.Sprintf("cell_size %d must be at least 1", p.CellSize))
		}
	case KindParticle:
		if p.Center[0] < 0 || p.Center[0] > 1 || p.Center[1] < 0 || p.Center[1] > 1 {
			return invalid(fmt.Sprintf("center (%g, %g) outside [0, 1]", p.Center[0], p.Center[1]))
		}
		if p.Radius <= 0 || p.Radius > 1 {
			return invalid(fmt.Sprintf("radius %g outside (0, 1]", p.Radius))
		}
		if p.Softness <= 0 || p.Softness > 1 {
			return invalid(fmt.Sprintf("softness %g outside (0, 1]", p.Softness))
		}
	}

	return nil
}

func invalid(detail string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidParams, detail),
		"Generator", "Validate", "check params")
}
