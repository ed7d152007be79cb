package history

import (
	"log/slog"
)

// Default configuration values.
const (
	DefaultMaxEntries = 1000
)

// options holds settings shared by stacks and coordinators.
// Each constructor reads the fields that apply to it.
type options struct {
	logger     *slog.Logger
	maxEntries int
	maxPending int
	policy     Policy
}

func defaultOptions() options {
	return options{
		maxEntries: DefaultMaxEntries,
		policy:     PolicyOperationLog,
	}
}

// Option configures a Stack or Coordinator during creation.
type Option func(*options)

// WithLogger sets the logger. Nodes without a logger use their parent's,
// falling back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxEntries sets the maximum number of undo entries kept by a stack.
func WithMaxEntries(max int) Option {
	return func(o *options) {
		if max > 0 {
			o.maxEntries = max
		}
	}
}

// WithMaxPending makes a stack's pending queue flush automatically once it
// holds max candidates. Zero disables the limit.
func WithMaxPending(max int) Option {
	return func(o *options) {
		if max >= 0 {
			o.maxPending = max
		}
	}
}

// WithPolicy sets a coordinator's resolution policy.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}
