package procedural

import (
	"fmt"
	"hash/fnv"
)

// CacheKey derives the stable cache key for a parameter set:
//
//	procedural:{kind}:{width}x{height}:{hash}
//
// The hash is FNV-1a 64 over a canonical encoding of the fields the kind
// actually uses, so two parameter sets that synthesize the same pixels
// share a key and any relevant field change produces a new one.
func CacheKey(p Params) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d", p.Kind, p.Width, p.Height)

	switch p.Kind {
	case KindGradient:
		fmt.Fprintf(h, "|%v|%v|%s", p.ColorA, p.ColorB, p.Direction)
	case KindNoise:
		fmt.Fprintf(h, "|%d|%g|%g", p.Seed, p.Frequency, p.Amplitude)
	case KindPattern:
		fmt.Fprintf(h, "|%s|%d|%v|%v", p.Style, p.CellSize, p.ColorA, p.ColorB)
	case KindParticle:
		fmt.Fprintf(h, "|%g|%g|%g|%g|%v",
			p.Center[0], p.Center[1], p.Radius, p.Softness, p.BaseColor)
	}

	return fmt.Sprintf("procedural:%s:%dx%d:%016x", p.Kind, p.Width, p.Height, h.Sum64())
}
