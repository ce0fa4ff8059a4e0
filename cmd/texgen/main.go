// Package main implements texgen, a command-line generator for procedural
// textures. It synthesizes a single texture from flags and writes it as
// PNG or WebP, which makes generator output easy to eyeball outside the
// engine.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/dustin/go-humanize"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/procedural"
)

func main() {
	kind := flag.String("kind", "noise", "Generator kind: gradient, noise, pattern, particle")
	width := flag.Int("w", 256, "Texture width in pixels")
	height := flag.Int("h", 256, "Texture height in pixels")
	out := flag.String("out", "texture.png", "Output path (.png or .webp)")

	colorA := flag.String("color-a", "#ffffffff", "Primary color as #rrggbb or #rrggbbaa")
	colorB := flag.String("color-b", "#000000ff", "Secondary color as #rrggbb or #rrggbbaa")
	direction := flag.String("direction", "horizontal", "Gradient direction: horizontal, vertical, radial")

	seed := flag.Int64("seed", 1, "Noise seed")
	freq := flag.Float64("freq", 8, "Noise lattice frequency")
	amp := flag.Float64("amp", 1, "Noise amplitude in (0, 1]")

	style := flag.String("style", "grid", "Pattern style: grid, stripes, dots")
	cell := flag.Int("cell", 16, "Pattern cell size in pixels")

	center := flag.String("center", "0.5,0.5", "Particle center in normalized x,y")
	radius := flag.Float64("radius", 0.75, "Particle radius as a fraction of half the smaller dimension")
	softness := flag.Float64("softness", 0.5, "Particle falloff softness in (0, 1]")

	dumpJSON := flag.Bool("json", false, "Print the resolved params as JSON")
	flag.Parse()

	params, err := buildParams(*kind, *width, *height,
		*colorA, *colorB, *direction,
		*seed, *freq, *amp,
		*style, *cell,
		*center, *radius, *softness)
	if err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	if err := params.Validate(); err != nil {
		log.Fatalf("Invalid params: %v", err)
	}

	if *dumpJSON {
		data, err := json.MarshalIndent(params, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal params: %v", err)
		}
		fmt.Println(string(data))
	}

	log.Printf("Generating %s %dx%d", params.Kind, params.Width, params.Height)
	log.Printf("  Cache key: %s", procedural.CacheKey(params))

	start := time.Now()
	tex, err := procedural.Generate(params)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
	log.Printf("  Generated in %s", time.Since(start).Round(time.Microsecond))

	size, err := writeTexture(*out, tex)
	if err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}

	log.Printf("  Wrote %s (%s)", *out, humanize.IBytes(uint64(size)))
}

// buildParams assembles Params from flag values. Only the fields the
// chosen kind consumes are populated, matching what the cache key hashes.
func buildParams(kind string, width, height int,
	colorA, colorB, direction string,
	seed int64, freq, amp float64,
	style string, cell int,
	center string, radius, softness float64,
) (procedural.Params, error) {
	p := procedural.Params{
		Kind:   procedural.Kind(strings.ToLower(kind)),
		Width:  width,
		Height: height,
	}

	a, err := parseHexColor(colorA)
	if err != nil {
		return p, fmt.Errorf("color-a: %w", err)
	}
	b, err := parseHexColor(colorB)
	if err != nil {
		return p, fmt.Errorf("color-b: %w", err)
	}

	switch p.Kind {
	case procedural.KindGradient:
		p.ColorA = a
		p.ColorB = b
		p.Direction = procedural.Direction(strings.ToLower(direction))
	case procedural.KindNoise:
		p.Seed = seed
		p.Frequency = freq
		p.Amplitude = amp
	case procedural.KindPattern:
		p.ColorA = a
		p.ColorB = b
		p.Style = procedural.Style(strings.ToLower(style))
		p.CellSize = cell
	case procedural.KindParticle:
		cx, cy, err := parseCenter(center)
		if err != nil {
			return p, fmt.Errorf("center: %w", err)
		}
		p.Center = [2]float64{cx, cy}
		p.Radius = radius
		p.Softness = softness
		p.BaseColor = a
	}

	return p, nil
}

// parseHexColor accepts #rrggbb or #rrggbbaa, with or without the hash.
func parseHexColor(s string) ([4]uint8, error) {
	var c [4]uint8
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 8 {
		return c, fmt.Errorf("%q must be rrggbb or rrggbbaa hex", s)
	}

	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return c, fmt.Errorf("%q is not valid hex: %w", s, err)
	}

	if len(s) == 6 {
		v = v<<8 | 0xff
	}
	c[0] = uint8(v >> 24)
	c[1] = uint8(v >> 16)
	c[2] = uint8(v >> 8)
	c[3] = uint8(v)
	return c, nil
}

func parseCenter(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%q must be x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// writeTexture encodes tex to path, choosing the codec by extension, and
// returns the written file size.
func writeTexture(path string, tex *asset.Texture) (int64, error) {
	img := tex.ToNRGBA()

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	case ".webp":
		err = nativewebp.Encode(f, img, nil)
	default:
		err = fmt.Errorf("unsupported extension %q (use .png or .webp)", filepath.Ext(path))
	}
	if err != nil {
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
