// Package record is the dual representation of a content record: an untyped
// form (JSON object plus metadata envelope) for storage and transport, and a
// typed form (envelope plus a concrete payload value) for domain logic, with
// lossless conversion between the two.
//
// Conversions and merges are pure, synchronous, and safe to run from any
// goroutine. Reference resolution is the only suspending operation; it is
// context-aware and delegates I/O to an injected Resolver. The package
// persists and caches nothing itself.
package record
