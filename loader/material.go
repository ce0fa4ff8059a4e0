package loader

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atlas3d/assetstream/asset"
)

// materialFile is the on-disk .mat document.
type materialFile struct {
	Name     string             `json:"name"`
	Params   map[string]float64 `json:"params"`
	Textures []string           `json:"textures"`
}

// parseMaterial reads a .mat JSON document. A missing name falls back to
// the file stem so every material has one.
func parseMaterial(key string, raw []byte) (*asset.Material, error) {
	var doc materialFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse material json: %v", err)
	}

	name := doc.Name
	if name == "" {
		base := filepath.Base(key)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	mat := &asset.Material{
		Name:         name,
		Params:       doc.Params,
		TexturePaths: doc.Textures,
	}
	if mat.Params == nil {
		mat.Params = map[string]float64{}
	}
	return mat, nil
}
