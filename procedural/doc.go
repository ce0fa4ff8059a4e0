// Package procedural synthesizes textures deterministically: gradients,
// value noise, cell patterns, and particle sprites.
//
// # Determinism
//
// Generate produces byte-identical output for identical Params. Nothing
// reads the wall clock or a global RNG; all variation comes from an
// integer lattice hash mixed from the seed, so results are reproducible
// across runs and platforms.
//
// # Validation
//
// Params.Validate fails fast with classified invalid errors before any
// pixels are produced. A generator never emits partial output.
//
// # Cache Keys
//
// CacheKey derives the stable key "procedural:{kind}:{w}x{h}:{hash}" used
// to cache synthesized textures alongside loaded ones. Only fields the
// kind uses feed the hash, so setting an unrelated field cannot split the
// cache.
package procedural
