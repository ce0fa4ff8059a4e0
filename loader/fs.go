package loader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	// Decoder registration for image.Decode.
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/errors"
)

// textureExts are the extensions routed through image.Decode.
var textureExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".tga":  true,
	".bmp":  true,
}

// FSOption configures a filesystem loader.
type FSOption func(*FS)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) FSOption {
	return func(l *FS) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// FS loads assets from files under a root directory. Keys are
// slash-separated paths relative to the root; the extension picks the
// decoder. Image files become textures, .obj files become meshes, .mat
// files become materials, and everything else is returned as an opaque
// blob with a sniffed MIME type.
type FS struct {
	root   string
	logger *slog.Logger
}

var _ Loader = (*FS)(nil)

// NewFS creates a filesystem loader rooted at dir.
func NewFS(dir string, options ...FSOption) (*FS, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: asset root %q: %v", errors.ErrInvalidConfig, dir, err),
			"FSLoader", "NewFS", "stat asset root")
	}
	if !info.IsDir() {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: asset root %q is not a directory", errors.ErrInvalidConfig, dir),
			"FSLoader", "NewFS", "stat asset root")
	}

	l := &FS{
		root:   dir,
		logger: slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

// Load reads and decodes the asset at key.
func (l *FS) Load(ctx context.Context, key string) (*asset.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "FSLoader", "Load", "load asset")
	}

	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapNotFound(
				fmt.Errorf("%w: %s", errors.ErrAssetNotFound, key),
				"FSLoader", "Load", "read asset file")
		}
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: %s: %v", errors.ErrTransientIO, key, err),
			"FSLoader", "Load", "read asset file")
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "FSLoader", "Load", "load asset")
	}

	a, err := l.decode(key, raw)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("Loaded asset",
		"key", key,
		"kind", a.Kind.String(),
		"size", a.SizeBytes)
	return a, nil
}

// resolve maps a key onto a path under the root, rejecting keys that
// escape it.
func (l *FS) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: empty key", errors.ErrInvalidKey),
			"FSLoader", "Load", "resolve key")
	}

	clean := filepath.FromSlash(key)
	if filepath.IsAbs(clean) || !filepath.IsLocal(clean) {
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %q escapes the asset root", errors.ErrInvalidKey, key),
			"FSLoader", "Load", "resolve key")
	}
	return filepath.Join(l.root, clean), nil
}

// decode picks the decoder by extension.
func (l *FS) decode(key string, raw []byte) (*asset.Asset, error) {
	ext := strings.ToLower(filepath.Ext(key))

	switch {
	case textureExts[ext]:
		return l.decodeTexture(key, raw)
	case ext == ".obj":
		mesh, err := parseMesh(raw)
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %s: %v", errors.ErrUnsupportedFormat, key, err),
				"FSLoader", "Load", "parse mesh")
		}
		return asset.NewMesh(key, mesh, asset.SourceLoader), nil
	case ext == ".mat":
		mat, err := parseMaterial(key, raw)
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %s: %v", errors.ErrUnsupportedFormat, key, err),
				"FSLoader", "Load", "parse material")
		}
		return asset.NewMaterial(key, mat, asset.SourceLoader), nil
	default:
		blob := &asset.Blob{
			Data: raw,
			MIME: http.DetectContentType(raw),
		}
		return asset.NewBlob(key, blob, asset.SourceLoader), nil
	}
}

// decodeTexture decodes any registered image format into an RGBA8
// texture.
func (l *FS) decodeTexture(key string, raw []byte) (*asset.Asset, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s: %v", errors.ErrUnsupportedFormat, key, err),
			"FSLoader", "Load", "decode texture")
	}

	tex := asset.FromImage(img)
	l.logger.Debug("Decoded texture",
		"key", key,
		"format", format,
		"width", tex.Width,
		"height", tex.Height)
	return asset.NewTexture(key, tex, asset.SourceLoader), nil
}
