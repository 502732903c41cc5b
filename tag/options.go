package tag

import "time"

const (
	// DefaultPollInterval is the wait between status checks while an
	// operation is Pending. Small and fixed: the engine's individual
	// calls are cheap, and anything coarser adds latency to every
	// read and write.
	DefaultPollInterval = 5 * time.Millisecond

	// DefaultCreateTimeout bounds creation polling.
	DefaultCreateTimeout = 5 * time.Second

	// DefaultOpTimeout bounds read/write polling for the value
	// helpers, which take no explicit timeout.
	DefaultOpTimeout = 2 * time.Second
)

// Options configures an entry.
type Options struct {
	// PollInterval between status checks. Default 5ms.
	PollInterval time.Duration

	// CreateTimeout bounds creation polling. Default 5s.
	CreateTimeout time.Duration

	// OpTimeout is the read/write poll deadline used by the value
	// helpers. Default 2s.
	OpTimeout time.Duration

	// Observers receive lifecycle and operation events.
	Observers []Observer
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.CreateTimeout <= 0 {
		o.CreateTimeout = DefaultCreateTimeout
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = DefaultOpTimeout
	}
	return o
}
