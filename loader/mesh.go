package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/atlas3d/assetstream/asset"
)

// parseMesh reads a Wavefront OBJ subset: v lines for positions and f
// lines for faces. Texture and normal references after a slash are
// ignored, faces with more than three corners are fan-triangulated, and
// anything else (groups, materials, smoothing) is skipped.
func parseMesh(raw []byte) (*asset.Mesh, error) {
	mesh := &asset.Mesh{
		BoundsMin: [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		BoundsMax: [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if err := parseVertex(mesh, fields[1:]); err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo, err)
			}
		case "f":
			if err := parseFace(mesh, fields[1:]); err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo, err)
			}
		default:
			// vt, vn, o, g, s, usemtl, mtllib
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mesh: %v", err)
	}

	if mesh.VertexCount == 0 {
		return nil, fmt.Errorf("mesh has no vertices")
	}
	if mesh.IndexCount == 0 {
		return nil, fmt.Errorf("mesh has no faces")
	}
	return mesh, nil
}

func parseVertex(mesh *asset.Mesh, fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("vertex needs 3 coordinates, got %d", len(fields))
	}

	var pos [3]float32
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return fmt.Errorf("vertex coordinate %q: %v", fields[i], err)
		}
		pos[i] = float32(v)
	}

	mesh.Vertices = append(mesh.Vertices, pos[0], pos[1], pos[2])
	mesh.VertexCount++

	for i := 0; i < 3; i++ {
		if pos[i] < mesh.BoundsMin[i] {
			mesh.BoundsMin[i] = pos[i]
		}
		if pos[i] > mesh.BoundsMax[i] {
			mesh.BoundsMax[i] = pos[i]
		}
	}
	return nil
}

func parseFace(mesh *asset.Mesh, fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("face needs at least 3 corners, got %d", len(fields))
	}

	corners := make([]uint32, len(fields))
	for i, f := range fields {
		// "7", "7/2", and "7/2/5" all reference vertex 7.
		if slash := strings.IndexByte(f, '/'); slash >= 0 {
			f = f[:slash]
		}
		idx, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("face index %q: %v", fields[i], err)
		}
		if idx < 1 || idx > mesh.VertexCount {
			return fmt.Errorf("face index %d out of range (have %d vertices)", idx, mesh.VertexCount)
		}
		corners[i] = uint32(idx - 1)
	}

	// Fan-triangulate: quads and larger polygons share the first corner.
	for i := 1; i+1 < len(corners); i++ {
		mesh.Indices = append(mesh.Indices, corners[0], corners[i], corners[i+1])
		mesh.IndexCount += 3
	}
	return nil
}
