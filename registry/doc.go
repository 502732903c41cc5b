// Package registry caches tag entries by key so concurrent callers
// share engine resources instead of multiplying them.
//
// # Sharing
//
// Every caller resolving the same key gets the same entry:
//
//	reg := registry.New(eng, registry.Options{})
//	defer reg.Close()
//
//	ref, err := reg.GetOrCreate(ctx, "plc1/Motor1", config)
//	if err != nil { ... }
//	defer ref.Close()
//
//	speed, err := tag.ReadValue[uint16](ctx, ref.Entry(), 0)
//
// Creation is deduplicated through a single-flight group: when many
// callers race on a missing key, the engine sees one create and every
// caller receives the same outcome, success or failure. Failures are
// never cached; the next lookup retries from scratch.
//
// # Lifetime
//
// The cache holds one reference per entry and each Ref holds another.
// An engine resource is released when its entry has left the cache
// (Remove, Close, or eviction after a fault) and the last Ref closes.
// Faulted entries are evicted lazily on the next lookup of their key,
// so a key recovers by recreation rather than staying poisoned.
package registry
