package loader

import (
	"context"
	stderrors "errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/errors"
)

func newFS(t *testing.T) (*FS, string) {
	t.Helper()

	root := t.TempDir()
	l, err := NewFS(root)
	require.NoError(t, err)
	return l, root
}

func writeAsset(t *testing.T, root, key string, data []byte) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(key))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// solidNRGBA builds a w x h image filled with one color.
func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodeAsset(t *testing.T, root, key string, img *image.NRGBA) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(key))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		require.NoError(t, png.Encode(f, img))
	case ".jpg", ".jpeg":
		require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 95}))
	case ".bmp":
		require.NoError(t, bmp.Encode(f, img))
	case ".webp":
		require.NoError(t, nativewebp.Encode(f, img, nil))
	default:
		t.Fatalf("no encoder for %s", key)
	}
}

func TestNewFS_Validation(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewFS(file)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestFS_LoadPNGTexture(t *testing.T) {
	l, root := newFS(t)

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 30), B: 7, A: 255})
		}
	}
	encodeAsset(t, root, "textures/grad.png", img)

	a, err := l.Load(context.Background(), "textures/grad.png")
	require.NoError(t, err)
	require.Equal(t, asset.KindTexture, a.Kind)
	require.NotNil(t, a.Texture)

	tex := a.Texture
	assert.Equal(t, 8, tex.Width)
	assert.Equal(t, 8, tex.Height)
	assert.Equal(t, asset.FormatRGBA8, tex.Format)
	assert.Len(t, tex.Pix, 8*8*4)
	assert.Equal(t, asset.SourceLoader, a.Source)
	assert.Equal(t, "textures/grad.png", a.Key)
	assert.Equal(t, a.ComputeSize(), a.SizeBytes)

	// Top-left and bottom-right texels survive the round trip.
	assert.Equal(t, []byte{0, 0, 7, 255}, []byte(tex.Pix[:4]))
	last := tex.Pix[len(tex.Pix)-4:]
	assert.Equal(t, []byte{210, 210, 7, 255}, []byte(last))
}

func TestFS_LoadJPEGTexture(t *testing.T) {
	l, root := newFS(t)
	encodeAsset(t, root, "textures/photo.jpg", solidNRGBA(16, 8, color.NRGBA{R: 128, G: 64, B: 32, A: 255}))

	a, err := l.Load(context.Background(), "textures/photo.jpg")
	require.NoError(t, err)
	require.Equal(t, asset.KindTexture, a.Kind)
	assert.Equal(t, 16, a.Texture.Width)
	assert.Equal(t, 8, a.Texture.Height)

	// JPEG is lossy; stay in the neighborhood.
	assert.InDelta(t, 128, a.Texture.Pix[0], 8)
	assert.InDelta(t, 64, a.Texture.Pix[1], 8)
}

func TestFS_LoadBMPTexture(t *testing.T) {
	l, root := newFS(t)
	encodeAsset(t, root, "textures/icon.bmp", solidNRGBA(4, 4, color.NRGBA{R: 10, G: 200, B: 30, A: 255}))

	a, err := l.Load(context.Background(), "textures/icon.bmp")
	require.NoError(t, err)
	require.Equal(t, asset.KindTexture, a.Kind)
	assert.Equal(t, 4, a.Texture.Width)
	assert.Equal(t, []byte{10, 200, 30, 255}, []byte(a.Texture.Pix[:4]))
}

func TestFS_LoadWebPTexture(t *testing.T) {
	l, root := newFS(t)
	encodeAsset(t, root, "textures/ui.webp", solidNRGBA(6, 3, color.NRGBA{R: 90, G: 12, B: 250, A: 255}))

	a, err := l.Load(context.Background(), "textures/ui.webp")
	require.NoError(t, err)
	require.Equal(t, asset.KindTexture, a.Kind)
	assert.Equal(t, 6, a.Texture.Width)
	assert.Equal(t, 3, a.Texture.Height)

	// nativewebp writes lossless, so colors are exact.
	assert.Equal(t, []byte{90, 12, 250, 255}, []byte(a.Texture.Pix[:4]))
}

func TestFS_LoadTGATexture(t *testing.T) {
	l, root := newFS(t)

	// Uncompressed 24-bit true-color TGA, 2x2, top-left origin, pixels
	// stored BGR.
	header := []byte{
		0,          // id length
		0,          // no color map
		2,          // uncompressed true color
		0, 0, 0, 0, 0, // color map spec
		0, 0, 0, 0, // origin
		2, 0, // width
		2, 0, // height
		24,   // bits per pixel
		0x20, // top-left origin
	}
	pixel := []byte{30, 200, 10} // B G R
	data := append(header, pixel...)
	data = append(data, pixel...)
	data = append(data, pixel...)
	data = append(data, pixel...)
	writeAsset(t, root, "sprites/crosshair.tga", data)

	a, err := l.Load(context.Background(), "sprites/crosshair.tga")
	require.NoError(t, err)
	require.Equal(t, asset.KindTexture, a.Kind)
	assert.Equal(t, 2, a.Texture.Width)
	assert.Equal(t, 2, a.Texture.Height)
	assert.Equal(t, []byte{10, 200, 30, 255}, []byte(a.Texture.Pix[:4]))
}

func TestFS_LoadMesh(t *testing.T) {
	l, root := newFS(t)

	obj := `# quad on z=0 plus one raised triangle
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
f 1 2 5
`
	writeAsset(t, root, "models/ramp.obj", []byte(obj))

	a, err := l.Load(context.Background(), "models/ramp.obj")
	require.NoError(t, err)
	require.Equal(t, asset.KindMesh, a.Kind)
	require.NotNil(t, a.Mesh)

	mesh := a.Mesh
	assert.Equal(t, 5, mesh.VertexCount)
	assert.Equal(t, 9, mesh.IndexCount, "quad fan-triangulates into two triangles")
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 0, 1, 4}, mesh.Indices)
	assert.Equal(t, [3]float32{0, 0, 0}, mesh.BoundsMin)
	assert.Equal(t, [3]float32{1, 1, 1}, mesh.BoundsMax)
	assert.Equal(t, int64(5*3*4+9*4), a.SizeBytes)
}

func TestFS_LoadMaterial(t *testing.T) {
	l, root := newFS(t)

	mat := `{
  "name": "brick_wall",
  "params": {"roughness": 0.8, "metallic": 0.1},
  "textures": ["textures/brick_d.png", "textures/brick_n.png"]
}`
	writeAsset(t, root, "materials/brick.mat", []byte(mat))

	a, err := l.Load(context.Background(), "materials/brick.mat")
	require.NoError(t, err)
	require.Equal(t, asset.KindMaterial, a.Kind)
	require.NotNil(t, a.Material)

	assert.Equal(t, "brick_wall", a.Material.Name)
	assert.Equal(t, 0.8, a.Material.Params["roughness"])
	assert.Equal(t, []string{"textures/brick_d.png", "textures/brick_n.png"}, a.Material.TexturePaths)
}

func TestFS_LoadMaterial_NameDefaultsToStem(t *testing.T) {
	l, root := newFS(t)
	writeAsset(t, root, "materials/chrome.mat", []byte(`{"params": {"metallic": 1}}`))

	a, err := l.Load(context.Background(), "materials/chrome.mat")
	require.NoError(t, err)
	assert.Equal(t, "chrome", a.Material.Name)
}

func TestFS_LoadBlob(t *testing.T) {
	l, root := newFS(t)
	writeAsset(t, root, "notes/readme.txt", []byte("tuning notes for the cave level\n"))

	a, err := l.Load(context.Background(), "notes/readme.txt")
	require.NoError(t, err)
	require.Equal(t, asset.KindBlob, a.Kind)
	require.NotNil(t, a.Blob)

	assert.True(t, strings.HasPrefix(a.Blob.MIME, "text/plain"))
	assert.Equal(t, int64(len(a.Blob.Data)), a.SizeBytes)
}

func TestFS_MissingFileIsNotFound(t *testing.T) {
	l, _ := newFS(t)

	_, err := l.Load(context.Background(), "textures/absent.png")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, stderrors.Is(err, errors.ErrAssetNotFound))
}

func TestFS_KeyEscapingRootIsInvalid(t *testing.T) {
	l, _ := newFS(t)

	for _, key := range []string{"../secrets.png", "/etc/passwd", ""} {
		_, err := l.Load(context.Background(), key)
		require.Error(t, err, "key %q", key)
		assert.True(t, errors.IsInvalid(err), "key %q", key)
	}
}

func TestFS_CorruptImageIsInvalid(t *testing.T) {
	l, root := newFS(t)
	writeAsset(t, root, "textures/bad.png", []byte("definitely not a png"))

	_, err := l.Load(context.Background(), "textures/bad.png")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.True(t, stderrors.Is(err, errors.ErrUnsupportedFormat))
}

func TestFS_MalformedMeshIsInvalid(t *testing.T) {
	l, root := newFS(t)
	writeAsset(t, root, "models/bad.obj", []byte("v 1 2\nf 1 2 3\n"))

	_, err := l.Load(context.Background(), "models/bad.obj")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.True(t, stderrors.Is(err, errors.ErrUnsupportedFormat))
}

func TestFS_UnreadableEntryIsTransient(t *testing.T) {
	l, root := newFS(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "models"), 0o755))

	// Reading a directory fails mid-read rather than at open.
	_, err := l.Load(context.Background(), "models")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.True(t, stderrors.Is(err, errors.ErrTransientIO))
}

func TestFS_CanceledContext(t *testing.T) {
	l, root := newFS(t)
	writeAsset(t, root, "a.txt", []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, "a.txt")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.True(t, stderrors.Is(err, context.Canceled))
}
