// Package loader defines the asset source contract and a filesystem
// implementation of it.
//
// # Overview
//
// The Loader interface is what the scheduler pulls from on a cache
// miss. FS is the reference implementation: keys are slash-separated
// paths under a root directory and the file extension selects the
// decoder.
//
//	png jpg jpeg webp tga bmp  ->  asset.Texture (RGBA8)
//	obj                        ->  asset.Mesh (positions + triangles)
//	mat                        ->  asset.Material (JSON parameter set)
//	anything else              ->  asset.Blob (sniffed MIME)
//
// # Error Classification
//
// Load wraps its failures so callers can pick a retry policy without
// string matching: a missing file is NotFound, malformed content is
// Invalid, and read errors are Transient. The scheduler retries only
// the transient class.
package loader
