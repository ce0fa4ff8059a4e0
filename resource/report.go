package resource

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/store"
)

// reportTopN bounds the per-kind top listings in reports.
const reportTopN = 5

// ReportEntry is one cached entry as shown in a report.
type ReportEntry struct {
	Key        string        `json:"key"`
	Kind       string        `json:"kind"`
	Size       string        `json:"size"`
	SizeBytes  int64         `json:"size_bytes"`
	Hits       uint64        `json:"hits"`
	Compressed bool          `json:"compressed,omitempty"`
	Age        time.Duration `json:"age"`
}

// Utilization describes how the cache budget is spent.
type Utilization struct {
	Used       string           `json:"used"`
	Capacity   string           `json:"capacity"`
	Percent    float64          `json:"percent"`
	KindCounts map[string]int   `json:"kind_counts"`
	KindBytes  map[string]int64 `json:"kind_bytes"`
}

// Report is a human-oriented view of the pipeline: the performance
// snapshot, cache utilization by kind, and the most consulted cached
// entries split into textures and data. Render it with String or
// marshal it as JSON.
type Report struct {
	Metrics     Metrics       `json:"metrics"`
	Utilization Utilization   `json:"utilization"`
	TopTextures []ReportEntry `json:"top_textures"`
	TopData     []ReportEntry `json:"top_data"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// GetResourceReport builds a report over the current cache contents.
// Top listings rank entries by hit count, most consulted first.
func (m *Manager) GetResourceReport() Report {
	now := m.clock.Now()

	var textures, data []store.EntryInfo
	kindCounts := make(map[string]int, 4)
	kindBytes := make(map[string]int64, 4)
	for _, e := range m.cache.Entries() {
		kind := e.Kind.String()
		kindCounts[kind]++
		kindBytes[kind] += e.Size
		if e.Kind == asset.KindTexture {
			textures = append(textures, e)
		} else {
			data = append(data, e)
		}
	}

	metrics := m.GetPerformanceMetrics()
	var percent float64
	if metrics.CapacityBytes > 0 {
		percent = float64(metrics.BytesInCache) / float64(metrics.CapacityBytes) * 100
	}

	return Report{
		Metrics: metrics,
		Utilization: Utilization{
			Used:       humanize.IBytes(uint64(metrics.BytesInCache)),
			Capacity:   humanize.IBytes(uint64(metrics.CapacityBytes)),
			Percent:    percent,
			KindCounts: kindCounts,
			KindBytes:  kindBytes,
		},
		TopTextures: topEntries(textures, now),
		TopData:     topEntries(data, now),
		GeneratedAt: now,
	}
}

// topEntries ranks entries by hit count, breaking ties by size and then
// key, and keeps the first reportTopN.
func topEntries(entries []store.EntryInfo, now time.Time) []ReportEntry {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.HitCount != b.HitCount {
			return a.HitCount > b.HitCount
		}
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		return a.Key < b.Key
	})
	if len(entries) > reportTopN {
		entries = entries[:reportTopN]
	}

	out := make([]ReportEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ReportEntry{
			Key:        e.Key,
			Kind:       e.Kind.String(),
			Size:       humanize.IBytes(uint64(e.Size)),
			SizeBytes:  e.Size,
			Hits:       e.HitCount,
			Compressed: e.Compressed,
			Age:        now.Sub(e.StoredAt),
		})
	}
	return out
}

// String renders the report as an indented text block.
func (r Report) String() string {
	var b strings.Builder
	m := r.Metrics
	u := r.Utilization

	fmt.Fprintf(&b, "Asset cache report (%s)\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "  %-12s%s / %s (%.1f%%, %d entries)\n", "usage",
		u.Used, u.Capacity, u.Percent, m.EntryCount)
	fmt.Fprintf(&b, "  %-12s%s hits, %s misses, ratio %.1f%%\n", "cache",
		humanize.Comma(m.Hits), humanize.Comma(m.Misses), m.HitRatio*100)
	fmt.Fprintf(&b, "  %-12s%s ok, %s failed, %s retries, %s coalesced, %s uncached\n", "loads",
		humanize.Comma(m.Loads), humanize.Comma(m.LoadFailures), humanize.Comma(m.Retries),
		humanize.Comma(m.Coalesced), humanize.Comma(m.Uncached))
	fmt.Fprintf(&b, "  %-12savg %.1fms, p95 %.1fms\n", "latency", m.AvgLoadMillis, m.P95LoadMillis)
	fmt.Fprintf(&b, "  %-12s%d capacity, %d ttl, %d resize\n", "evictions",
		m.Evictions.Capacity, m.Evictions.TTL, m.Evictions.Resize)
	fmt.Fprintf(&b, "  %-12shigh %d, normal %d, low %d (inflight %d)\n", "queued",
		m.QueueDepth.High, m.QueueDepth.Normal, m.QueueDepth.Low, m.Inflight)
	fmt.Fprintf(&b, "  %-12s%d generated, %d optimized\n", "procedural",
		m.Generations, m.Optimizations)
	fmt.Fprintf(&b, "  %-12s%s\n", "uptime", m.Uptime.Round(time.Second))

	if len(u.KindCounts) > 0 {
		kinds := make([]string, 0, len(u.KindCounts))
		for k := range u.KindCounts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)

		parts := make([]string, 0, len(kinds))
		for _, k := range kinds {
			parts = append(parts, fmt.Sprintf("%s %d (%s)", k, u.KindCounts[k],
				humanize.IBytes(uint64(u.KindBytes[k]))))
		}
		fmt.Fprintf(&b, "  %-12s%s\n", "by kind", strings.Join(parts, ", "))
	}

	writeTop(&b, "top textures", r.TopTextures)
	writeTop(&b, "top data", r.TopData)

	return b.String()
}

// writeTop renders one ranked entry list under its label.
func writeTop(b *strings.Builder, label string, entries []ReportEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s:\n", label)
	for i, e := range entries {
		fmt.Fprintf(b, "    %d. %-48s %10s  %d hits\n", i+1, e.Key, e.Size, e.Hits)
	}
}
