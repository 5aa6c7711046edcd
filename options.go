package arena

import "github.com/rs/zerolog"

// Option configures an Arena at construction time.
type Option func(*Arena)

// WithLogger routes allocator trace events to l. Allocation, split, free
// and coalesce steps are logged at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Arena) {
		a.log = l
	}
}

// WithInvariantChecks runs Check after every Allocate and Free and logs
// any violation at error level. Each check walks the whole pool.
func WithInvariantChecks(enabled bool) Option {
	return func(a *Arena) {
		a.checks = enabled
	}
}
