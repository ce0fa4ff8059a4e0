// Package events provides a typed, non-blocking event bus for the asset
// pipeline.
//
// # Overview
//
// Cache and loader operations publish tagged events (hit, miss, loaded,
// load failed, evicted, expired, config updated) that tools, HUD overlays,
// and tests observe through subscriptions. The bus also retains a bounded
// ring of recent events for reports that want "what just happened" without
// holding a subscription open.
//
// # Never Block the Frame
//
// Publishing is fire and forget. Every subscriber has its own bounded
// queue; when a queue fills, the overflow policy decides which event that
// subscriber loses (DropOldest by default, DropNewest optionally). There
// is deliberately no blocking policy: a stalled debug overlay must never
// stall an asset load.
//
// # Observability
//
// The bus follows the dual-tracking pattern: always-on Statistics
// (published, delivered, dropped, subscriber counts) plus optional
// Prometheus metrics via WithMetrics.
//
// # Usage
//
//	bus, err := events.NewBus(256)
//	if err != nil {
//		return err
//	}
//	sub := bus.Subscribe()
//	defer sub.Close()
//
//	go func() {
//		for evt := range sub.Events() {
//			log.Printf("%s %s", evt.Type, evt.Key)
//		}
//	}()
//
//	bus.Publish(events.Event{Type: events.TypeLoaded, Key: key})
package events
