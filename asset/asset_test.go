package asset

import (
	"image"
	"image/color"
	"testing"
)

func TestComputeSize(t *testing.T) {
	tests := []struct {
		name     string
		asset    *Asset
		expected int64
	}{
		{
			name: "rgba texture",
			asset: NewTexture("tex/a", &Texture{
				Width: 4, Height: 4, Format: FormatRGBA8,
				Pix: make([]byte, 64),
			}, SourceLoader),
			expected: 64,
		},
		{
			name: "rgb texture",
			asset: NewTexture("tex/b", &Texture{
				Width: 4, Height: 4, Format: FormatRGB8,
				Pix: make([]byte, 48),
			}, SourceLoader),
			expected: 48,
		},
		{
			name: "texture with mips",
			asset: NewTexture("tex/c", &Texture{
				Width: 2, Height: 2, Format: FormatRGBA8,
				Pix:       make([]byte, 16),
				MipLevels: [][]byte{make([]byte, 4)},
			}, SourceProcedural),
			expected: 20,
		},
		{
			name: "mesh",
			asset: NewMesh("mesh/a", &Mesh{
				VertexCount: 3, IndexCount: 3,
				Vertices: make([]float32, 9),
				Indices:  make([]uint32, 3),
			}, SourceLoader),
			expected: 9*4 + 3*4,
		},
		{
			name: "material",
			asset: NewMaterial("mat/a", &Material{
				Name:         "stone",
				Params:       map[string]float64{"roughness": 0.8},
				TexturePaths: []string{"tex/a"},
			}, SourceLoader),
			expected: 5 + 16 + 5,
		},
		{
			name:     "blob",
			asset:    NewBlob("blob/a", &Blob{Data: make([]byte, 100), MIME: "application/octet-stream"}, SourceLoader),
			expected: 100,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.asset.SizeBytes != test.expected {
				t.Errorf("SizeBytes = %d, want %d", test.asset.SizeBytes, test.expected)
			}
			if got := test.asset.ComputeSize(); got != test.expected {
				t.Errorf("ComputeSize() = %d, want %d", got, test.expected)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindTexture, "texture"},
		{KindMesh, "mesh"},
		{KindMaterial, "material"},
		{KindBlob, "blob"},
		{Kind(42), "unknown"},
	}
	for _, test := range tests {
		if got := test.kind.String(); got != test.expected {
			t.Errorf("Kind(%d).String() = %q, want %q", test.kind, got, test.expected)
		}
	}
}

func TestTextureClone(t *testing.T) {
	orig := &Texture{
		Width: 2, Height: 1, Format: FormatRGBA8,
		Pix:       []byte{1, 2, 3, 4, 5, 6, 7, 8},
		MipLevels: [][]byte{{9, 9, 9, 9}},
		Filtering: FilterBilinear,
		Wrap:      WrapRepeat,
	}

	cp := orig.Clone()
	cp.Pix[0] = 200
	cp.MipLevels[0][0] = 200

	if orig.Pix[0] != 1 {
		t.Error("Clone shares level 0 pixel storage with original")
	}
	if orig.MipLevels[0][0] != 9 {
		t.Error("Clone shares mip storage with original")
	}
	if cp.Filtering != FilterBilinear || cp.Wrap != WrapRepeat {
		t.Error("Clone dropped sampling state")
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{B: 255, A: 128})

	tex := FromImage(img)
	if tex.Width != 2 || tex.Height != 2 {
		t.Fatalf("dimensions = %dx%d, want 2x2", tex.Width, tex.Height)
	}
	if tex.Format != FormatRGBA8 {
		t.Fatalf("format = %v, want rgba8", tex.Format)
	}
	if tex.Pix[0] != 255 || tex.Pix[3] != 255 {
		t.Errorf("pixel (0,0) = %v, want red opaque", tex.Pix[0:4])
	}
	if tex.Pix[14] != 255 || tex.Pix[15] != 128 {
		t.Errorf("pixel (1,1) = %v, want blue half-alpha", tex.Pix[12:16])
	}
}

func TestToNRGBA_RGB8(t *testing.T) {
	tex := &Texture{
		Width: 1, Height: 1, Format: FormatRGB8,
		Pix: []byte{10, 20, 30},
	}
	img := tex.ToNRGBA()
	if img.Pix[0] != 10 || img.Pix[1] != 20 || img.Pix[2] != 30 || img.Pix[3] != 255 {
		t.Errorf("converted pixel = %v, want [10 20 30 255]", img.Pix[0:4])
	}
}

func TestMipDimensions(t *testing.T) {
	tex := &Texture{Width: 256, Height: 64}

	tests := []struct {
		level int
		w, h  int
	}{
		{0, 256, 64},
		{1, 128, 32},
		{6, 4, 1},
		{8, 1, 1},
		{20, 1, 1},
	}
	for _, test := range tests {
		w, h := tex.MipDimensions(test.level)
		if w != test.w || h != test.h {
			t.Errorf("MipDimensions(%d) = %dx%d, want %dx%d", test.level, w, h, test.w, test.h)
		}
	}
}
