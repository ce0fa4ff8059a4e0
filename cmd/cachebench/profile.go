package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Profile describes a synthetic workload: how many workers issue which
// operations against how many keys, and how the backing loader behaves.
// Sizes accept humanized strings ("64KB"), durations accept "30s" style
// strings or nanosecond integers.
type Profile struct {
	Duration flexDuration `yaml:"duration"`
	Workers  int          `yaml:"workers"`
	Seed     int64        `yaml:"seed"`

	// Key population. A hot subset receives most of the traffic so the
	// cache has something worth keeping.
	Keys        int     `yaml:"keys"`
	HotFraction float64 `yaml:"hot_fraction"`
	HotTraffic  float64 `yaml:"hot_traffic"`

	// Synthetic loader behavior.
	AssetSize    string       `yaml:"asset_size"`
	TextureRatio float64      `yaml:"texture_ratio"`
	LoadDelay    flexDuration `yaml:"load_delay"`
	FailureRate  float64      `yaml:"failure_rate"`

	// Engine cache budget. Empty means a quarter of the working set so
	// eviction pressure is part of the run.
	CacheSize string `yaml:"cache_size"`

	Ops OpMix `yaml:"ops"`

	// Preload shape. A zero concurrency leaves the manager's configured
	// batch parallelism in charge.
	PreloadBatch      int `yaml:"preload_batch"`
	PreloadConcurrent int `yaml:"preload_concurrent"`

	assetSizeBytes int64
	cacheSizeBytes int64
}

// OpMix weights the operations a worker picks from. Weights are relative,
// not required to sum to one.
type OpMix struct {
	Get        float64 `yaml:"get"`
	Async      float64 `yaml:"async"`
	Preload    float64 `yaml:"preload"`
	Procedural float64 `yaml:"procedural"`
}

func (m OpMix) total() float64 {
	return m.Get + m.Async + m.Preload + m.Procedural
}

// DefaultProfile returns a workload that finishes in half a minute on a
// laptop and still produces eviction and coalescing activity.
func DefaultProfile() *Profile {
	return &Profile{
		Duration:     flexDuration(30 * time.Second),
		Workers:      8,
		Seed:         1,
		Keys:         2000,
		HotFraction:  0.1,
		HotTraffic:   0.8,
		AssetSize:    "64KB",
		TextureRatio: 0.25,
		LoadDelay:    flexDuration(2 * time.Millisecond),
		FailureRate:  0.01,
		Ops: OpMix{
			Get:        0.85,
			Async:      0.10,
			Preload:    0.03,
			Procedural: 0.02,
		},
		PreloadBatch:      16,
		PreloadConcurrent: 4,
	}
}

// LoadProfile reads a YAML profile, layered over the defaults so partial
// files work.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, p.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}

	return p, p.Validate()
}

// Validate checks ranges and resolves humanized sizes.
func (p *Profile) Validate() error {
	if p.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if p.Workers < 1 {
		return fmt.Errorf("workers %d must be at least 1", p.Workers)
	}
	if p.Keys < 1 {
		return fmt.Errorf("keys %d must be at least 1", p.Keys)
	}
	if p.HotFraction < 0 || p.HotFraction > 1 {
		return fmt.Errorf("hot_fraction %g outside [0, 1]", p.HotFraction)
	}
	if p.HotTraffic < 0 || p.HotTraffic > 1 {
		return fmt.Errorf("hot_traffic %g outside [0, 1]", p.HotTraffic)
	}
	if p.TextureRatio < 0 || p.TextureRatio > 1 {
		return fmt.Errorf("texture_ratio %g outside [0, 1]", p.TextureRatio)
	}
	if p.FailureRate < 0 || p.FailureRate > 1 {
		return fmt.Errorf("failure_rate %g outside [0, 1]", p.FailureRate)
	}
	if p.LoadDelay < 0 {
		return fmt.Errorf("load_delay cannot be negative")
	}
	if p.Ops.total() <= 0 {
		return fmt.Errorf("ops weights must sum to a positive value")
	}
	if p.PreloadBatch < 1 {
		return fmt.Errorf("preload_batch %d must be at least 1", p.PreloadBatch)
	}
	if p.PreloadConcurrent < 0 {
		return fmt.Errorf("preload_concurrent cannot be negative")
	}

	size, err := humanize.ParseBytes(p.AssetSize)
	if err != nil {
		return fmt.Errorf("asset_size %q: %w", p.AssetSize, err)
	}
	if size == 0 {
		return fmt.Errorf("asset_size cannot be zero")
	}
	p.assetSizeBytes = int64(size)

	if p.CacheSize != "" {
		cache, err := humanize.ParseBytes(p.CacheSize)
		if err != nil {
			return fmt.Errorf("cache_size %q: %w", p.CacheSize, err)
		}
		if cache == 0 {
			return fmt.Errorf("cache_size cannot be zero")
		}
		p.cacheSizeBytes = int64(cache)
	} else {
		p.cacheSizeBytes = p.assetSizeBytes * int64(p.Keys) / 4
	}

	return nil
}

// WorkingSetBytes is the total size of all synthetic assets.
func (p *Profile) WorkingSetBytes() int64 {
	return p.assetSizeBytes * int64(p.Keys)
}

// CacheBytes is the resolved cache budget.
func (p *Profile) CacheBytes() int64 {
	return p.cacheSizeBytes
}

// flexDuration parses either a duration string ("250ms") or a plain
// integer nanosecond count.
type flexDuration time.Duration

func (d *flexDuration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = flexDuration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("duration must be a string or integer nanoseconds")
	}
	*d = flexDuration(n)
	return nil
}

func (d flexDuration) Std() time.Duration {
	return time.Duration(d)
}
