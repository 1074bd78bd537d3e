package part

import "github.com/rs/zerolog"

//---------------------
// Tree Options
//---------------------

// Options configures a tree. Snapshots share the options of the tree they came from.
type Options struct {
	Logger    zerolog.Logger // trace sink for structural events, Nop by default
	MaxKeyLen int            // longest key Insert accepts
	Node16    Kernel         // Node16 search kernel

	startKind Kind // kind of freshly created internal nodes
}

// Option applies a configuration mutation to Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Logger:    zerolog.Nop(),
		MaxKeyLen: DefaultMaxKeyLen,
		Node16:    KernelAuto,
		startKind: KindNode4,
	}
}

// WithLogger routes trace events (growth, splits, clones, releases) to l.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMaxKeyLen changes the key length limit enforced by Insert.
func WithMaxKeyLen(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxKeyLen = n
		}
	}
}

// WithNode16Kernel pins the Node16 search kernel.
func WithNode16Kernel(k Kernel) Option {
	return func(o *Options) {
		o.Node16 = k
	}
}

// withStartKind makes new internal nodes start at kind k instead of Node4.
func withStartKind(k Kind) Option {
	return func(o *Options) {
		if k.capacity() > 0 {
			o.startKind = k
		}
	}
}
