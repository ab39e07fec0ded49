package hashtable

// RehashEvent describes a transition of the rehash state machine.
type RehashEvent struct {
	Kind RehashEventKind
	// From and To are the bucket counts of the old and the new table.
	From, To int
	// Len is the number of stored entries at the time of the event.
	Len int
}

type RehashEventKind uint8

const (
	RehashStarted RehashEventKind = iota
	RehashFinished
)

func (k RehashEventKind) String() string {
	switch k {
	case RehashStarted:
		return "started"
	case RehashFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// DefaultInitialSize is the bucket count of a new index.
const DefaultInitialSize = 4

type options struct {
	initialSize int
	hook        func(RehashEvent)
}

// Option configures an index at construction.
type Option func(*options)

// WithInitialSize sets the initial bucket count. It is rounded up to the next
// power of two; values below 1 select DefaultInitialSize.
func WithInitialSize(n int) Option {
	return func(o *options) {
		o.initialSize = n
	}
}

// WithRehashHook registers fn to be called whenever a rehash starts or
// finishes. fn runs synchronously inside the triggering operation and must
// not call back into the index.
func WithRehashHook(fn func(RehashEvent)) Option {
	return func(o *options) {
		o.hook = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{initialSize: DefaultInitialSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.initialSize < 1 {
		o.initialSize = DefaultInitialSize
	}
	o.initialSize = nextPow2(o.initialSize)
	return o
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
