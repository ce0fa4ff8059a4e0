package procedural

import (
	"math"

	"github.com/atlas3d/assetstream/asset"
)

// Generate synthesizes a texture from validated params. Output is
// byte-identical for identical params: no wall clock, no global RNG, all
// variation derives from the seeded lattice hash.
func Generate(p Params) (*asset.Texture, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tex := &asset.Texture{
		Width:  p.Width,
		Height: p.Height,
		Format: asset.FormatRGBA8,
		Pix:    make([]byte, p.Width*p.Height*4),
	}

	switch p.Kind {
	case KindGradient:
		generateGradient(tex, p)
	case KindNoise:
		generateNoise(tex, p)
	case KindPattern:
		generatePattern(tex, p)
	case KindParticle:
		generateParticle(tex, p)
	}

	return tex, nil
}

func generateGradient(tex *asset.Texture, p Params) {
	w, h := p.Width, p.Height

	// Radial normalizes distance from the image center against the
	// farthest corner so t spans the full [0,1] range.
	cx := float64(w-1) / 2
	cy := float64(h-1) / 2
	maxDist := math.Sqrt(cx*cx + cy*cy)

	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var t float64
			switch p.Direction {
			case DirectionHorizontal:
				if w > 1 {
					t = float64(x) / float64(w-1)
				}
			case DirectionVertical:
				if h > 1 {
					t = float64(y) / float64(h-1)
				}
			case DirectionRadial:
				if maxDist > 0 {
					dx := float64(x) - cx
					dy := float64(y) - cy
					t = math.Min(1, math.Sqrt(dx*dx+dy*dy)/maxDist)
				}
			}
			tex.Pix[i] = lerp8(p.ColorA[0], p.ColorB[0], t)
			tex.Pix[i+1] = lerp8(p.ColorA[1], p.ColorB[1], t)
			tex.Pix[i+2] = lerp8(p.ColorA[2], p.ColorB[2], t)
			tex.Pix[i+3] = lerp8(p.ColorA[3], p.ColorB[3], t)
			i += 4
		}
	}
}

func generateNoise(tex *asset.Texture, p Params) {
	w, h := p.Width, p.Height

	i := 0
	for y := 0; y < h; y++ {
		sy := float64(y) / float64(h) * p.Frequency
		for x := 0; x < w; x++ {
			sx := float64(x) / float64(w) * p.Frequency

			v := valueNoise(sx, sy, p.Seed)
			gray := uint8(math.Round(255 * v * p.Amplitude))

			tex.Pix[i] = gray
			tex.Pix[i+1] = gray
			tex.Pix[i+2] = gray
			tex.Pix[i+3] = 255
			i += 4
		}
	}
}

// valueNoise interpolates seeded lattice hashes with smoothstep weights,
// returning a value in [0, 1).
func valueNoise(x, y float64, seed int64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	ix := int64(x0)
	iy := int64(y0)

	h00 := latticeHash(ix, iy, seed)
	h10 := latticeHash(ix+1, iy, seed)
	h01 := latticeHash(ix, iy+1, seed)
	h11 := latticeHash(ix+1, iy+1, seed)

	fx := x - x0
	fy := y - y0
	u := fx * fx * (3 - 2*fx)
	v := fy * fy * (3 - 2*fy)

	top := h00 + (h10-h00)*u
	bottom := h01 + (h11-h01)*u
	return top + (bottom-top)*v
}

// latticeHash mixes lattice coordinates and the seed into [0, 1) using a
// splitmix64-style finalizer. Integer-only, so results are identical on
// every platform.
func latticeHash(ix, iy, seed int64) float64 {
	h := uint64(ix)*0x9E3779B185EBCA87 ^ uint64(iy)*0xC2B2AE3D27D4EB4F ^ uint64(seed)*0x165667B19E3779F9
	h ^= h >> 30
	h *= 0xBF58476D1CE4E5B9
	h ^= h >> 27
	h *= 0x94D049BB133111EB
	h ^= h >> 31
	return float64(h>>11) / float64(1<<53)
}

func generatePattern(tex *asset.Texture, p Params) {
	w, h := p.Width, p.Height
	cell := p.CellSize

	// Dot geometry within a cell: centered, radius a quarter of the cell.
	dotCenter := float64(cell-1) / 2
	dotRadius := float64(cell) / 4

	i := 0
	for y := 0; y < h; y++ {
		cy := y / cell
		for x := 0; x < w; x++ {
			cx := x / cell

			var foreground bool
			switch p.Style {
			case StyleGrid:
				foreground = (cx+cy)%2 == 0
			case StyleStripes:
				foreground = cy%2 == 0
			case StyleDots:
				dx := float64(x%cell) - dotCenter
				dy := float64(y%cell) - dotCenter
				foreground = dx*dx+dy*dy < dotRadius*dotRadius
			}

			c := p.ColorB
			if foreground {
				c = p.ColorA
			}
			tex.Pix[i] = c[0]
			tex.Pix[i+1] = c[1]
			tex.Pix[i+2] = c[2]
			tex.Pix[i+3] = c[3]
			i += 4
		}
	}
}

func generateParticle(tex *asset.Texture, p Params) {
	w, h := p.Width, p.Height

	cx := p.Center[0] * float64(w-1)
	cy := p.Center[1] * float64(h-1)
	maxRadius := p.Radius * math.Min(float64(w), float64(h)) / 2
	exponent := 1 / p.Softness
	baseAlpha := float64(p.BaseColor[3])

	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			d := math.Sqrt(dx*dx + dy*dy)

			var alpha uint8
			if d < maxRadius {
				falloff := 1 - math.Pow(d/maxRadius, exponent)
				alpha = uint8(math.Round(baseAlpha * falloff))
			}

			tex.Pix[i] = p.BaseColor[0]
			tex.Pix[i+1] = p.BaseColor[1]
			tex.Pix[i+2] = p.BaseColor[2]
			tex.Pix[i+3] = alpha
			i += 4
		}
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
