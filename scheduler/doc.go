// Package scheduler runs asset loads asynchronously with bounded
// concurrency, request coalescing, and priority dispatch.
//
// # Overview
//
// A Scheduler sits between the render loop and a slow asset source. The
// caller asks for a key and gets a Future back immediately; the load
// itself runs on a worker goroutine under the scheduler's lifetime,
// bounded by a configurable number of slots.
//
//	s, err := scheduler.New(loader, cache, scheduler.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Close()
//
//	fut := s.Load(ctx, "textures/wall_diffuse", scheduler.PriorityHigh)
//	a, err := fut.Wait(ctx)
//
// # Coalescing
//
// Concurrent requests for the same key share one flight. The first
// request queues the load; everyone after it gets a Future resolved by
// the same worker. A higher-priority duplicate upgrades the queued
// flight's position instead of queueing twice.
//
// # Priorities
//
// Three classes order dispatch: PriorityHigh for assets blocking the
// current frame, PriorityNormal for on-demand loads, PriorityLow for
// preloads. Queued flights dispatch strictly high before normal before
// low; within a class, arrival order wins.
//
// # Failure Handling
//
// Each attempt runs under its own timeout. Transient failures retry
// with the configured backoff; NotFound and Invalid errors fail the
// flight immediately. When attempts run out the flight resolves with a
// fatal retries-exhausted error. A full cache never fails a load: the
// asset is served to waiters uncached and the cache recovers on its
// own.
//
// # Lifetime
//
// Loads are detached from the requester's context. A waiter whose ctx
// expires abandons its Future while the flight completes for the other
// waiters and still lands in the cache. Close cancels queued flights,
// interrupts running loads, and waits for the workers to drain.
package scheduler
