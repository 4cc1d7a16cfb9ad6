package environment

import (
	"os"

	"github.com/xraph/cohesion/internal/auth"
	"github.com/xraph/cohesion/internal/logger"
)

// Option configures New.
type Option func(*options)

type options struct {
	dir    string
	name   string
	logger logger.Logger
	auth   auth.Auth
	getenv func(string) string
}

func newOptions(opts []Option) *options {
	o := &options{getenv: os.Getenv}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithDir sets the directory holding default-conf and the environment files.
// Without it only the framework defaults are loaded.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithName sets the environment name, overriding the environment variables.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger instead of building one from the logging
// section.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAuth sets the principal source.
func WithAuth(a auth.Auth) Option {
	return func(o *options) { o.auth = a }
}

// WithGetenv replaces os.Getenv for reading the environment name.
func WithGetenv(fn func(string) string) Option {
	return func(o *options) {
		if fn != nil {
			o.getenv = fn
		}
	}
}
