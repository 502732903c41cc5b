// Package engine provides a simulated in-memory protocol engine.
//
// The production engine is the libplctag C library (or a compatible
// implementation) behind the tagruntime.Engine interface; its cgo
// binding lives outside this repository. The Sim engine here mirrors
// the engine contract faithfully enough for the runtime's tests and
// the tagmon testbed: non-blocking operations that report Pending and
// resolve after a configurable latency, raw byte buffer accessors,
// and deliberate failure injection through sim_* config attributes.
//
// Sim also enforces the contract's central hazard: a resource with two
// unresolved operations is corrupted. Tests assert Corrupted() stayed
// false to prove the runtime serialized every handle correctly.
package engine
