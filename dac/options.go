package dac

import (
	"github.com/runtimediag/daclib/com"
	"github.com/runtimediag/daclib/loader"
)

type options struct {
	abi      com.ABI
	registry *loader.Registry
}

// Option customizes Library construction.
type Option func(*options)

// WithABI substitutes the native call surface. Used by tests; the default
// is com.SystemABI.
func WithABI(abi com.ABI) Option {
	return func(o *options) { o.abi = abi }
}

// WithRegistry uses a private image registry instead of the process-wide
// one, isolating image sharing to a set of sessions.
func WithRegistry(r *loader.Registry) Option {
	return func(o *options) { o.registry = r }
}

func buildOptions(opts []Option) options {
	o := options{
		abi:      com.SystemABI(),
		registry: loader.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
