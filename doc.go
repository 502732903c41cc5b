// Package tagruntime provides safe, cached, asynchronous access to PLC
// tags on top of a poll-driven protocol engine.
//
// The protocol engine (libplctag or a compatible implementation behind
// the Engine interface) exposes only blocking-create / poll-to-complete
// primitives, and its resources are not safe for concurrent use. This
// library turns that into a shared, non-blocking tag API: a registry
// deduplicates logically-identical tags, a per-tag operation queue
// serializes every engine call, and a completion bridge converts
// Pending polling into resolved results.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	tagruntime/      Root package with the Engine contract and Status codes
//	├── registry/    Key → shared tag entry cache with single-flight creation
//	├── tag/         Tag entries: per-resource serialization and async ops
//	├── codec/       Typed value encode/decode against the tag buffer
//	├── engine/      Simulated in-memory engine for tests and the CLI
//	├── errors/      The closed error taxonomy
//	├── journal/     SQLite-backed lifecycle event journal
//	└── cmd/tagmon   CLI and interactive tag monitor
//
// # Quick Start
//
// Resolve a tag through the registry and exchange values:
//
//	reg := registry.New(eng, registry.Options{})
//	defer reg.Close()
//
//	ref, err := reg.GetOrCreate(ctx, "gw1;Tag1",
//	    "protocol=ab-eip&gateway=192.168.1.120&path=1,0&name=Tag1&elem_size=2&elem_count=1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ref.Close()
//
//	if err := tag.WriteValue(ctx, ref.Entry(), 0, uint16(123)); err != nil {
//	    log.Fatal(err)
//	}
//	v, err := tag.ReadValue[uint16](ctx, ref.Entry(), 0)
//
// # Concurrency Model
//
// Each entry owns exactly one engine handle and runs one worker
// goroutine; operations on a single entry execute strictly one at a
// time in submission order, while operations on distinct entries run
// fully in parallel. Callers that abandon a wait (context cancellation)
// detach from the result but never abort the underlying engine call or
// skip its turn in the queue.
package tagruntime
