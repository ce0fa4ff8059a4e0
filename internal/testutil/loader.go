// Package testutil provides mock implementations and asset builders for
// testing the cache, scheduler, and facade without touching disk.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/errors"
)

// MockLoader is a scripted asset loader for testing. Outcomes are
// configured per key; unknown keys fail with a not-found error. The
// loader tracks call counts and the concurrency high-water mark so tests
// can verify coalescing and slot limits.
type MockLoader struct {
	mu sync.Mutex

	// LoadFunc overrides all scripted behavior when set.
	LoadFunc func(ctx context.Context, key string) (*asset.Asset, error)

	assets   map[string]*asset.Asset
	errs     map[string]error
	failures map[string]int // transient failures remaining before success
	failErr  map[string]error
	blocked  map[string]chan struct{}

	delay time.Duration

	calls       map[string]int
	totalCalls  int
	inflight    int
	maxInflight int
}

// NewMockLoader creates an empty scripted loader.
func NewMockLoader() *MockLoader {
	return &MockLoader{
		assets:   make(map[string]*asset.Asset),
		errs:     make(map[string]error),
		failures: make(map[string]int),
		failErr:  make(map[string]error),
		blocked:  make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
}

// SetAsset scripts a successful load for key.
func (l *MockLoader) SetAsset(key string, a *asset.Asset) {
	l.mu.Lock()
	l.assets[key] = a
	l.mu.Unlock()
}

// SetError scripts a permanent failure for key.
func (l *MockLoader) SetError(key string, err error) {
	l.mu.Lock()
	l.errs[key] = err
	l.mu.Unlock()
}

// FailTimes scripts n failures for key before the normal scripted outcome
// applies. A nil err fails with a transient I/O error.
func (l *MockLoader) FailTimes(key string, n int, err error) {
	l.mu.Lock()
	l.failures[key] = n
	if err != nil {
		l.failErr[key] = err
	}
	l.mu.Unlock()
}

// SetDelay makes every load take at least d before returning.
func (l *MockLoader) SetDelay(d time.Duration) {
	l.mu.Lock()
	l.delay = d
	l.mu.Unlock()
}

// Block holds future loads for key open until Release is called.
func (l *MockLoader) Block(key string) {
	l.mu.Lock()
	if _, ok := l.blocked[key]; !ok {
		l.blocked[key] = make(chan struct{})
	}
	l.mu.Unlock()
}

// Release lets loads blocked on key proceed.
func (l *MockLoader) Release(key string) {
	l.mu.Lock()
	if gate, ok := l.blocked[key]; ok {
		close(gate)
		delete(l.blocked, key)
	}
	l.mu.Unlock()
}

// Calls returns how many times key was loaded.
func (l *MockLoader) Calls(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[key]
}

// TotalCalls returns the total number of load invocations.
func (l *MockLoader) TotalCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalCalls
}

// MaxConcurrent returns the highest number of loads observed in flight at
// once.
func (l *MockLoader) MaxConcurrent() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxInflight
}

// Load returns the scripted outcome for key.
func (l *MockLoader) Load(ctx context.Context, key string) (*asset.Asset, error) {
	l.mu.Lock()
	l.calls[key]++
	l.totalCalls++
	l.inflight++
	if l.inflight > l.maxInflight {
		l.maxInflight = l.inflight
	}
	delay := l.delay
	gate := l.blocked[key]
	override := l.LoadFunc
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.inflight--
		l.mu.Unlock()
	}()

	if override != nil {
		return override(ctx, key)
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	if l.failures[key] > 0 {
		l.failures[key]--
		err, ok := l.failErr[key]
		l.mu.Unlock()
		if !ok {
			err = errors.WrapTransient(
				fmt.Errorf("%w: %s", errors.ErrTransientIO, key),
				"MockLoader", "Load", "read asset")
		}
		return nil, err
	}
	if err, ok := l.errs[key]; ok {
		l.mu.Unlock()
		return nil, err
	}
	a, ok := l.assets[key]
	l.mu.Unlock()

	if !ok {
		return nil, errors.WrapNotFound(
			fmt.Errorf("%w: %s", errors.ErrAssetNotFound, key),
			"MockLoader", "Load", "resolve asset")
	}
	return a, nil
}

// BlobAsset builds a blob asset of exactly size bytes for cache
// accounting tests.
func BlobAsset(key string, size int) *asset.Asset {
	return asset.NewBlob(key, &asset.Blob{
		Data: make([]byte, size),
		MIME: "application/octet-stream",
	}, asset.SourceLoader)
}

// TextureAsset builds a small opaque RGBA texture.
func TextureAsset(key string, width, height int) *asset.Asset {
	pix := make([]byte, width*height*4)
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 255
	}
	return asset.NewTexture(key, &asset.Texture{
		Width:  width,
		Height: height,
		Format: asset.FormatRGBA8,
		Pix:    pix,
	}, asset.SourceLoader)
}
