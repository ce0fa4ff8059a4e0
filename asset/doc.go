// Package asset defines the resource model shared by the cache, scheduler,
// and loaders: a tagged Asset union over textures, meshes, materials, and
// opaque blobs.
//
// # Asset Model
//
// An Asset carries exactly one payload, selected by Kind. SizeBytes is the
// decoded payload size and is what the cache budgets against; it always
// equals ComputeSize() for an unmodified asset, including the mip chain
// for textures.
//
// # Texture Optimization
//
// Optimize applies sampling state (filtering, wrap mode) and optionally
// generates an RGBA8 mip chain by successive bilinear halving down to 1x1.
// The transform is pure: inputs are cloned, never mutated, so cached pixel
// data stays stable while optimized variants are produced from it.
//
//	out, err := asset.Optimize(tex, asset.OptionsForQuality(asset.QualityHigh))
//
// Quality presets map the engine's texture_quality setting to concrete
// options: low (nearest, clamp, no mips), medium (bilinear, repeat, mips),
// high (trilinear, repeat, mips).
package asset
