package asset

import (
	"time"
)

// Kind discriminates the payload carried by an Asset. Exactly one payload
// field is non-nil for a given kind.
type Kind int

const (
	// KindTexture is a decoded 2D image ready for sampling
	KindTexture Kind = iota
	// KindMesh is triangle geometry with vertex and index buffers
	KindMesh
	// KindMaterial is a named parameter set referencing textures by path
	KindMaterial
	// KindBlob is an opaque byte payload for formats the pipeline does not decode
	KindBlob
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindMesh:
		return "mesh"
	case KindMaterial:
		return "material"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// Source records where an asset came from
type Source int

const (
	// SourceLoader marks assets produced by a Loader implementation
	SourceLoader Source = iota
	// SourceProcedural marks assets synthesized in-process
	SourceProcedural
)

// String returns the string representation of Source
func (s Source) String() string {
	switch s {
	case SourceLoader:
		return "loader"
	case SourceProcedural:
		return "procedural"
	default:
		return "unknown"
	}
}

// Mesh is triangle geometry. Vertices are packed position data
// (3 floats per vertex); Indices reference vertices in triangle order.
type Mesh struct {
	VertexCount int
	IndexCount  int
	Vertices    []float32
	Indices     []uint32
	BoundsMin   [3]float32
	BoundsMax   [3]float32
}

// Material is a named parameter set for a surface shader.
type Material struct {
	Name         string
	Params       map[string]float64
	TexturePaths []string
}

// Blob is an opaque payload with a sniffed MIME type.
type Blob struct {
	Data []byte
	MIME string
}

// Asset is one cacheable resource. Kind selects which payload pointer is
// set; SizeBytes is the decoded payload size used for cache accounting and
// always equals ComputeSize after construction.
type Asset struct {
	Key       string
	Kind      Kind
	Texture   *Texture
	Mesh      *Mesh
	Material  *Material
	Blob      *Blob
	SizeBytes int64
	Source    Source
	CreatedAt time.Time
}

// NewTexture wraps a decoded texture as an Asset with its size computed.
func NewTexture(key string, tex *Texture, src Source) *Asset {
	a := &Asset{
		Key:       key,
		Kind:      KindTexture,
		Texture:   tex,
		Source:    src,
		CreatedAt: time.Now(),
	}
	a.SizeBytes = a.ComputeSize()
	return a
}

// NewMesh wraps decoded geometry as an Asset with its size computed.
func NewMesh(key string, mesh *Mesh, src Source) *Asset {
	a := &Asset{
		Key:       key,
		Kind:      KindMesh,
		Mesh:      mesh,
		Source:    src,
		CreatedAt: time.Now(),
	}
	a.SizeBytes = a.ComputeSize()
	return a
}

// NewMaterial wraps a material definition as an Asset with its size computed.
func NewMaterial(key string, mat *Material, src Source) *Asset {
	a := &Asset{
		Key:       key,
		Kind:      KindMaterial,
		Material:  mat,
		Source:    src,
		CreatedAt: time.Now(),
	}
	a.SizeBytes = a.ComputeSize()
	return a
}

// NewBlob wraps an opaque payload as an Asset with its size computed.
func NewBlob(key string, blob *Blob, src Source) *Asset {
	a := &Asset{
		Key:       key,
		Kind:      KindBlob,
		Blob:      blob,
		Source:    src,
		CreatedAt: time.Now(),
	}
	a.SizeBytes = a.ComputeSize()
	return a
}

// ComputeSize returns the decoded payload size in bytes, including the
// mip chain for textures. Cache accounting relies on this being stable
// for an unmodified asset.
func (a *Asset) ComputeSize() int64 {
	switch a.Kind {
	case KindTexture:
		if a.Texture == nil {
			return 0
		}
		size := int64(len(a.Texture.Pix))
		for _, mip := range a.Texture.MipLevels {
			size += int64(len(mip))
		}
		return size
	case KindMesh:
		if a.Mesh == nil {
			return 0
		}
		return int64(len(a.Mesh.Vertices))*4 + int64(len(a.Mesh.Indices))*4
	case KindMaterial:
		if a.Material == nil {
			return 0
		}
		size := int64(len(a.Material.Name))
		size += int64(len(a.Material.Params)) * 16
		for _, p := range a.Material.TexturePaths {
			size += int64(len(p))
		}
		return size
	case KindBlob:
		if a.Blob == nil {
			return 0
		}
		return int64(len(a.Blob.Data))
	default:
		return 0
	}
}
