package store

import (
	"github.com/klauspost/compress/zstd"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/errors"
)

// compressThreshold is the minimum payload size worth compressing.
// Small payloads rarely shrink and the frame overhead can grow them.
const compressThreshold = 4 * 1024

// codec wraps a shared zstd encoder/decoder pair. EncodeAll and DecodeAll
// on shared instances are safe for concurrent use.
type codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newCodec(level int) (*codec, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, errors.WrapFatal(err, "Store", "newCodec", "create zstd encoder")
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.WrapFatal(err, "Store", "newCodec", "create zstd decoder")
	}
	return &codec{encoder: encoder, decoder: decoder}, nil
}

func (c *codec) close() {
	c.encoder.Close()
	c.decoder.Close()
}

// compressible returns the payload eligible for compression, or nil when
// the asset kind or payload size does not qualify. Only the dominant flat
// payload is compressed; texture mip chains stay raw.
func compressible(a *asset.Asset) []byte {
	switch a.Kind {
	case asset.KindTexture:
		if a.Texture != nil && len(a.Texture.Pix) >= compressThreshold {
			return a.Texture.Pix
		}
	case asset.KindBlob:
		if a.Blob != nil && len(a.Blob.Data) >= compressThreshold {
			return a.Blob.Data
		}
	}
	return nil
}

// compress returns the zstd frame for payload, or nil when compression
// does not actually shrink it.
func (c *codec) compress(payload []byte) []byte {
	frame := c.encoder.EncodeAll(payload, nil)
	if len(frame) >= len(payload) {
		return nil
	}
	return frame
}

// decompress expands a frame produced by compress.
func (c *codec) decompress(frame []byte) ([]byte, error) {
	payload, err := c.decoder.DecodeAll(frame, nil)
	if err != nil {
		return nil, errors.WrapFatal(err, "Store", "decompress", "expand cached payload")
	}
	return payload, nil
}

// restore rebuilds a full asset from a stored one whose dominant payload
// was replaced by a compressed frame. The stored asset is not mutated.
func restore(stored *asset.Asset, payload []byte) *asset.Asset {
	out := *stored
	switch stored.Kind {
	case asset.KindTexture:
		tex := *stored.Texture
		tex.Pix = payload
		out.Texture = &tex
	case asset.KindBlob:
		blob := *stored.Blob
		blob.Data = payload
		out.Blob = &blob
	}
	return &out
}

// strip returns a copy of the asset with its dominant payload removed,
// for storage alongside the compressed frame.
func strip(a *asset.Asset) *asset.Asset {
	out := *a
	switch a.Kind {
	case asset.KindTexture:
		tex := *a.Texture
		tex.Pix = nil
		out.Texture = &tex
	case asset.KindBlob:
		blob := *a.Blob
		blob.Data = nil
		out.Blob = &blob
	}
	return &out
}
