// Package framedecoder implements a frame-chunk decoder cache for a
// video/image annotation client.
//
// Philosophy: "One decode at a time, never stale. Correctness over
// throughput."
//
// Design:
//   - Single-writer decode discipline behind an async mutex
//   - Bounded admission-order LRU of decoded chunks with deterministic
//     resource release
//   - Three-state request lifecycle (queued, in-flight, superseded) with
//     an outdated-request rejection protocol
package framedecoder
