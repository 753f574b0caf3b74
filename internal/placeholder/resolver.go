// Package placeholder resolves receipt template tokens against an order
package placeholder

import (
	"math/rand/v2"
	"time"

	"github.com/thereceipt/receipt-interpreter/pkg/order"
)

// RandSource produces random filler values. *rand.Rand satisfies it.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Resolver maps placeholder tokens to printable strings
type Resolver struct {
	rand     RandSource
	location *time.Location
}

// Option configures a Resolver
type Option func(*Resolver)

// WithRandSource sets the source of random receipt numbers and filler codes
func WithRandSource(src RandSource) Option {
	return func(r *Resolver) {
		r.rand = src
	}
}

// WithLocation sets the time zone timestamps are printed in
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		r.location = loc
	}
}

// NewResolver creates a resolver. By default it uses the global random
// source and the local time zone.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		rand:     globalRand{},
		location: time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the printable value of token. Unrecognized tokens are
// returned unchanged. A nil order resolves every field to its default.
func (r *Resolver) Resolve(token string, o *order.Order) string {
	fn, ok := fields[token]
	if !ok {
		return token
	}
	return fn(r, o)
}

// Recognized reports whether token is a known placeholder in either dialect
func Recognized(token string) bool {
	_, ok := fields[token]
	return ok
}

// between returns a random integer in [lo, hi]
func (r *Resolver) between(lo, hi int) int {
	return lo + r.rand.IntN(hi-lo+1)
}
