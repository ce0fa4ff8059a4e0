package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMesh_IgnoresDecorations(t *testing.T) {
	obj := `# exported by hand
mtllib scene.mtl
o tri
v 0 0 0
vt 0 0
vn 0 0 1
v 1 0 0
v 0 1 0
usemtl flat
s off
f 1 2 3

`
	mesh, err := parseMesh([]byte(obj))
	require.NoError(t, err)
	assert.Equal(t, 3, mesh.VertexCount)
	assert.Equal(t, 3, mesh.IndexCount)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
}

func TestParseMesh_FanTriangulatesPolygons(t *testing.T) {
	obj := `v 0 0 0
v 2 0 0
v 3 1 0
v 2 2 0
v 0 2 0
f 1 2 3 4 5
`
	mesh, err := parseMesh([]byte(obj))
	require.NoError(t, err)
	assert.Equal(t, 9, mesh.IndexCount, "pentagon becomes three triangles")
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 0, 3, 4}, mesh.Indices)
}

func TestParseMesh_SlashFormsReferenceVertexOnly(t *testing.T) {
	obj := `v 0 0 0
v 1 0 0
v 0 1 0
f 1/1 2//3 3/2/1
`
	mesh, err := parseMesh([]byte(obj))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
}

func TestParseMesh_Bounds(t *testing.T) {
	obj := `v -1 -2 -3
v 4 5 6
v 0 0 0
f 1 2 3
`
	mesh, err := parseMesh([]byte(obj))
	require.NoError(t, err)
	assert.Equal(t, [3]float32{-1, -2, -3}, mesh.BoundsMin)
	assert.Equal(t, [3]float32{4, 5, 6}, mesh.BoundsMax)
}

func TestParseMesh_Errors(t *testing.T) {
	cases := []struct {
		name string
		obj  string
	}{
		{"empty", ""},
		{"no faces", "v 0 0 0\nv 1 0 0\nv 0 1 0\n"},
		{"no vertices", "f 1 2 3\n"},
		{"short vertex", "v 1 2\n"},
		{"bad coordinate", "v a b c\n"},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"bad index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 x\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseMesh([]byte(tc.obj))
			assert.Error(t, err)
		})
	}
}
