package asset

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/atlas3d/assetstream/errors"
)

// Quality names a texture optimization preset. Presets trade sampling
// cost for visual quality; OptionsForQuality maps each to concrete
// optimization options.
type Quality string

const (
	// QualityLow disables mipmaps and uses nearest sampling
	QualityLow Quality = "low"
	// QualityMedium enables mipmaps with bilinear sampling
	QualityMedium Quality = "medium"
	// QualityHigh enables mipmaps with trilinear sampling
	QualityHigh Quality = "high"
)

// Valid reports whether q names a known preset.
func (q Quality) Valid() bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh:
		return true
	}
	return false
}

// OptimizeOptions controls the texture optimization transform.
type OptimizeOptions struct {
	Filtering       Filtering
	Wrap            Wrap
	GenerateMipmaps bool
	// ForceRGBA converts RGB8 textures to RGBA8. Mipmap generation
	// implies this since mip levels are always RGBA8.
	ForceRGBA bool
}

// OptionsForQuality returns the optimization options for a quality preset.
// Unknown presets fall back to medium.
func OptionsForQuality(q Quality) OptimizeOptions {
	switch q {
	case QualityLow:
		return OptimizeOptions{
			Filtering:       FilterNearest,
			Wrap:            WrapClamp,
			GenerateMipmaps: false,
		}
	case QualityHigh:
		return OptimizeOptions{
			Filtering:       FilterTrilinear,
			Wrap:            WrapRepeat,
			GenerateMipmaps: true,
		}
	default:
		return OptimizeOptions{
			Filtering:       FilterBilinear,
			Wrap:            WrapRepeat,
			GenerateMipmaps: true,
		}
	}
}

// Usage names the rendering role a texture is optimized for. The role
// refines the quality preset in OptionsForUsage.
type Usage string

const (
	// UsageGeneral keeps the quality preset as is
	UsageGeneral Usage = "general"
	// UsageUI is for screen-space elements drawn at native resolution
	UsageUI Usage = "ui"
	// UsageEffect is for tiled particle and decal textures
	UsageEffect Usage = "effect"
	// UsageNormalMap is for tangent-space normal maps
	UsageNormalMap Usage = "normal"
)

// Valid reports whether u names a known usage.
func (u Usage) Valid() bool {
	switch u {
	case UsageGeneral, UsageUI, UsageEffect, UsageNormalMap:
		return true
	}
	return false
}

// OptionsForUsage refines the options of a quality preset for the
// texture's rendering role. UI textures clamp at the edges and skip
// mipmaps. Effect textures tile and sample at least bilinearly. Normal
// maps always carry mipmaps and sample at least bilinearly. Unknown
// usages leave the preset unchanged.
func OptionsForUsage(u Usage, q Quality) OptimizeOptions {
	opts := OptionsForQuality(q)
	switch u {
	case UsageUI:
		opts.Wrap = WrapClamp
		opts.GenerateMipmaps = false
		// Trilinear blends across mip levels; without them it is
		// bilinear.
		if opts.Filtering == FilterTrilinear {
			opts.Filtering = FilterBilinear
		}
	case UsageEffect:
		opts.Wrap = WrapRepeat
		if opts.Filtering == FilterNearest {
			opts.Filtering = FilterBilinear
		}
	case UsageNormalMap:
		opts.GenerateMipmaps = true
		if opts.Filtering == FilterNearest {
			opts.Filtering = FilterBilinear
		}
	}
	return opts
}

// Optimize applies filtering, wrapping, and optional mipmap generation to
// a texture and returns the transformed copy. The input is never mutated.
func Optimize(tex *Texture, opts OptimizeOptions) (*Texture, error) {
	if tex == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidParams,
			"Texture", "Optimize", "nil texture")
	}
	if tex.Width <= 0 || tex.Height <= 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: dimensions %dx%d", errors.ErrInvalidParams, tex.Width, tex.Height),
			"Texture", "Optimize", "validate dimensions")
	}
	if want := tex.Width * tex.Height * tex.Format.BytesPerPixel(); len(tex.Pix) != want {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: pixel buffer %d bytes, expected %d", errors.ErrInvalidParams, len(tex.Pix), want),
			"Texture", "Optimize", "validate pixel buffer")
	}

	out := tex.Clone()
	out.Filtering = opts.Filtering
	out.Wrap = opts.Wrap

	if out.Format == FormatRGB8 && (opts.ForceRGBA || opts.GenerateMipmaps) {
		rgba := out.ToNRGBA()
		out.Format = FormatRGBA8
		out.Pix = rgba.Pix
	}

	if opts.GenerateMipmaps {
		out.MipLevels = buildMipChain(out)
	} else {
		out.MipLevels = nil
	}

	return out, nil
}

// buildMipChain generates RGBA8 levels 1..n by successive halving down to
// 1x1. Each level is scaled from the previous one, floor division on both
// axes with a floor of 1.
func buildMipChain(t *Texture) [][]byte {
	var mips [][]byte
	src := t.ToNRGBA()
	w, h := t.Width, t.Height
	for w > 1 || h > 1 {
		w = max(1, w/2)
		h = max(1, h/2)
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		level := make([]byte, len(dst.Pix))
		copy(level, dst.Pix)
		mips = append(mips, level)
		src = dst
	}
	return mips
}
