package loader

import (
	"context"

	"github.com/atlas3d/assetstream/asset"
)

// Loader fetches one asset by key. Load must honor ctx cancellation and
// classify its failures: wrap missing assets as NotFound and malformed
// content as Invalid so callers know not to retry, and leave everything
// else Transient.
type Loader interface {
	Load(ctx context.Context, key string) (*asset.Asset, error)
}
