package tag

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	tagruntime "github.com/edgefoundry/tag-runtime"
)

// Poller converts the engine's poll-based status primitive into a
// resolved result. It re-checks status at a bounded fixed interval,
// suspending cooperatively between checks.
type Poller struct {
	eng      tagruntime.Engine
	limit    rate.Limit
	interval time.Duration
}

// NewPoller builds a poller that checks status every interval.
func NewPoller(eng tagruntime.Engine, interval time.Duration) *Poller {
	return &Poller{
		eng:      eng,
		limit:    rate.Every(interval),
		interval: interval,
	}
}

// Await polls until the handle leaves Pending or the deadline elapses.
// It returns the final status and false, or Pending and true when the
// deadline expired first. The engine operation itself is never
// aborted; after a timeout the caller must Drain before issuing the
// next operation on the same handle.
func (p *Poller) Await(h tagruntime.Handle, deadline time.Time) (tagruntime.Status, bool) {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	lim := rate.NewLimiter(p.limit, 1)
	for {
		st := p.eng.Status(h)
		if !st.IsPending() {
			return st, false
		}
		if err := lim.Wait(ctx); err != nil {
			// Deadline passed between checks. One last look so a
			// completion that raced the deadline still wins.
			st = p.eng.Status(h)
			if !st.IsPending() {
				return st, false
			}
			return tagruntime.StatusPending, true
		}
	}
}

// Drain polls without a deadline until the in-flight operation
// resolves. Used after a timed-out wait: the engine cannot abort the
// operation, and issuing another one while it is unresolved would
// corrupt the resource buffer. The engine's own internal timeout
// guarantees eventual resolution. Any buffer side effects of the late
// completion are observed by the handle's next operation only.
func (p *Poller) Drain(h tagruntime.Handle) tagruntime.Status {
	lim := rate.NewLimiter(p.limit, 1)
	for {
		st := p.eng.Status(h)
		if !st.IsPending() {
			return st
		}
		_ = lim.Wait(context.Background())
	}
}
