package registry

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	tagruntime "github.com/edgefoundry/tag-runtime"
	"github.com/edgefoundry/tag-runtime/errors"
	"github.com/edgefoundry/tag-runtime/tag"
)

// Options configures a registry.
type Options struct {
	// Entry is applied to every entry the registry creates.
	Entry tag.Options

	// Observers are appended to Entry.Observers for every entry, so a
	// single journal or monitor sees the whole registry.
	Observers []tag.Observer
}

// Registry is the shared tag cache. Callers resolve a key to a Ref;
// everyone resolving the same key shares one Entry and therefore one
// engine resource. Creation is deduplicated: no matter how many
// callers race on a missing key, the engine sees exactly one create,
// and every caller gets the same outcome.
//
// The registry holds one reference per cached entry. User references
// come and go with Ref.Close; the engine resource is released when the
// entry has left the cache and the last user reference closes.
type Registry struct {
	eng  tagruntime.Engine
	opts Options

	mu      sync.Mutex
	entries map[string]*tag.Entry
	closed  bool

	group singleflight.Group
}

// New builds an empty registry over the engine.
func New(eng tagruntime.Engine, opts Options) *Registry {
	return &Registry{
		eng:     eng,
		opts:    opts,
		entries: make(map[string]*tag.Entry),
	}
}

// Ref is one caller's handle on a shared entry. Close releases it;
// the entry itself outlives the Ref while cached or otherwise
// referenced. Using a Ref after Close fails with closed errors from
// the entry once it is finally destroyed.
type Ref struct {
	r    *Registry
	e    *tag.Entry
	once sync.Once
}

// Entry returns the shared entry. Valid until Close.
func (rf *Ref) Entry() *tag.Entry { return rf.e }

// Key returns the registry key the Ref resolved.
func (rf *Ref) Key() string { return rf.e.Key() }

// Close releases this reference. Idempotent. The last release after
// the entry leaves the cache destroys the engine resource.
func (rf *Ref) Close() {
	rf.once.Do(func() {
		rf.r.release(rf.e)
	})
}

// GetOrCreate resolves key to a shared entry, creating it on first
// use. Concurrent callers with the same missing key join one creation;
// a creation failure is delivered identically to every joined caller
// and is not cached, so the next call retries from scratch.
//
// The config string binds on first creation; later callers' configs
// are ignored while the entry stays cached. A caller whose ctx expires
// detaches from the wait only, the creation runs to resolution.
func (r *Registry) GetOrCreate(ctx context.Context, key, config string) (*Ref, error) {
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, errors.Closed(errors.OpLookup, key)
		}
		if e, ok := r.entries[key]; ok {
			if e.State() == tag.StateFaulted {
				// Evict so the key can be recreated.
				delete(r.entries, key)
				r.mu.Unlock()
				r.release(e)
				continue
			}
			e.AddRef()
			r.mu.Unlock()
			return &Ref{r: r, e: e}, nil
		}
		r.mu.Unlock()

		e, err := r.create(ctx, key, config)
		if err != nil {
			return nil, err
		}
		if e == nil {
			// Lost a race with Remove or Close between creation and
			// lookup; start over.
			continue
		}
		e.AddRef()
		return &Ref{r: r, e: e}, nil
	}
}

// create runs the deduplicated creation path and returns the cached
// entry, or nil when the entry vanished before this caller could
// reference it.
func (r *Registry) create(ctx context.Context, key, config string) (*tag.Entry, error) {
	ch := r.group.DoChan(key, func() (any, error) {
		// A previous flight may have landed between this caller's map
		// miss and now; flights are serialized per key, so the map is
		// authoritative here.
		r.mu.Lock()
		if e, ok := r.entries[key]; ok {
			r.mu.Unlock()
			return e, nil
		}
		r.mu.Unlock()

		opts := r.opts.Entry
		opts.Observers = append(append([]tag.Observer{}, opts.Observers...), r.opts.Observers...)

		e := tag.New(r.eng, key, config, opts)
		// Detached callers must not abort the creation; the entry's
		// own CreateTimeout bounds it.
		if err := e.Connect(context.Background()); err != nil {
			e.Destroy(context.Background())
			Logger().Debug("tag creation failed",
				zap.String("key", key),
				zap.Error(err))
			return nil, err
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			e.Destroy(context.Background())
			return nil, errors.Closed(errors.OpLookup, key)
		}
		e.AddRef() // the cache's reference
		r.entries[key] = e
		r.mu.Unlock()

		Logger().Debug("tag cached",
			zap.String("key", key),
			zap.Uint32("size", e.Size()))
		return e, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		e := res.Val.(*tag.Entry)
		r.mu.Lock()
		cached := r.entries[key] == e
		r.mu.Unlock()
		if !cached {
			return nil, nil
		}
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Remove evicts key from the cache and drops the cache's reference.
// The engine resource is destroyed once outstanding Refs close.
// Removing an absent key is a no-op.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if ok {
		delete(r.entries, key)
	}
	r.mu.Unlock()
	if ok {
		r.release(e)
	}
}

// Close evicts every entry and refuses further lookups. Entries with
// outstanding Refs are destroyed as those Refs close.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	evicted := make([]*tag.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		evicted = append(evicted, e)
	}
	r.entries = make(map[string]*tag.Entry)
	r.mu.Unlock()

	for _, e := range evicted {
		r.release(e)
	}
	Logger().Debug("registry closed", zap.Int("evicted", len(evicted)))
}

// release drops one reference and destroys the entry when it was the
// last.
func (r *Registry) release(e *tag.Entry) {
	if e.Release() > 0 {
		return
	}
	if err := e.Destroy(context.Background()); err != nil {
		Logger().Warn("entry destroy failed",
			zap.String("key", e.Key()),
			zap.Error(err))
	}
}

// Len reports the number of cached entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Keys returns the cached keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Entry returns the cached entry for key without taking a reference.
// For monitoring; operational callers use GetOrCreate.
func (r *Registry) Entry(key string) (*tag.Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	return e, ok
}
