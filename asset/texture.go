package asset

import (
	"image"
	"image/color"
)

// Format is the pixel layout of a texture's Pix buffer.
type Format int

const (
	// FormatRGBA8 stores 4 bytes per pixel, row-major
	FormatRGBA8 Format = iota
	// FormatRGB8 stores 3 bytes per pixel, row-major, no alpha
	FormatRGB8
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatRGB8:
		return "rgb8"
	default:
		return "unknown"
	}
}

// BytesPerPixel returns the per-pixel byte count for the format.
func (f Format) BytesPerPixel() int {
	if f == FormatRGB8 {
		return 3
	}
	return 4
}

// Filtering selects the sampling filter a renderer should use.
type Filtering int

const (
	// FilterNearest samples the nearest texel
	FilterNearest Filtering = iota
	// FilterBilinear interpolates the four nearest texels
	FilterBilinear
	// FilterTrilinear interpolates across mip levels as well
	FilterTrilinear
)

// String returns the string representation of Filtering
func (f Filtering) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterBilinear:
		return "bilinear"
	case FilterTrilinear:
		return "trilinear"
	default:
		return "unknown"
	}
}

// Wrap selects how coordinates outside [0,1] are handled.
type Wrap int

const (
	// WrapClamp clamps coordinates to the edge texel
	WrapClamp Wrap = iota
	// WrapRepeat tiles the texture
	WrapRepeat
)

// String returns the string representation of Wrap
func (w Wrap) String() string {
	switch w {
	case WrapClamp:
		return "clamp"
	case WrapRepeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// Texture is a decoded 2D image. Pix holds level 0 row-major with
// Format.BytesPerPixel() bytes per pixel; MipLevels holds successively
// halved levels 1..n when mipmaps have been generated, each RGBA8.
type Texture struct {
	Width     int
	Height    int
	Format    Format
	Pix       []byte
	MipLevels [][]byte
	Filtering Filtering
	Wrap      Wrap
}

// Clone returns a deep copy. Transforms operate on clones so cached
// pixel data is never mutated in place.
func (t *Texture) Clone() *Texture {
	cp := &Texture{
		Width:     t.Width,
		Height:    t.Height,
		Format:    t.Format,
		Filtering: t.Filtering,
		Wrap:      t.Wrap,
	}
	cp.Pix = make([]byte, len(t.Pix))
	copy(cp.Pix, t.Pix)
	if len(t.MipLevels) > 0 {
		cp.MipLevels = make([][]byte, len(t.MipLevels))
		for i, mip := range t.MipLevels {
			cp.MipLevels[i] = make([]byte, len(mip))
			copy(cp.MipLevels[i], mip)
		}
	}
	return cp
}

// ToNRGBA converts level 0 to an image.NRGBA for encoding and scaling.
func (t *Texture) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	if t.Format == FormatRGBA8 {
		copy(img.Pix, t.Pix)
		return img
	}
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			si := (y*t.Width + x) * 3
			di := img.PixOffset(x, y)
			img.Pix[di] = t.Pix[si]
			img.Pix[di+1] = t.Pix[si+1]
			img.Pix[di+2] = t.Pix[si+2]
			img.Pix[di+3] = 255
		}
	}
	return img
}

// FromImage converts any decoded image into an RGBA8 texture.
func FromImage(src image.Image) *Texture {
	b := src.Bounds()
	tex := &Texture{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: FormatRGBA8,
		Pix:    make([]byte, b.Dx()*b.Dy()*4),
	}

	if n, ok := src.(*image.NRGBA); ok && n.Stride == b.Dx()*4 {
		copy(tex.Pix, n.Pix[n.PixOffset(b.Min.X, b.Min.Y):])
		return tex
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			tex.Pix[i] = c.R
			tex.Pix[i+1] = c.G
			tex.Pix[i+2] = c.B
			tex.Pix[i+3] = c.A
			i += 4
		}
	}
	return tex
}

// MipDimensions returns the dimensions of mip level n (level 0 is the
// base image). Each level halves both axes with floor division, never
// dropping below 1.
func (t *Texture) MipDimensions(level int) (int, int) {
	w, h := t.Width, t.Height
	for i := 0; i < level; i++ {
		w = max(1, w/2)
		h = max(1, h/2)
	}
	return w, h
}
