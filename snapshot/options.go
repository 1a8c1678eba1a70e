package snapshot

import (
	"github.com/robert-malhotra/go-gadgethdf/internal/config"
	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"github.com/robert-malhotra/go-gadgethdf/internal/container/h5"
	"go.uber.org/zap"
)

// Option configures Open.
type Option func(*options)

type options struct {
	variant    *Variant
	backend    container.Backend
	cfg        *config.Config
	configFile string
	log        *zap.Logger
	registry   *Registry
}

func defaultOptions() *options {
	return &options{
		backend:  h5.Backend{},
		registry: DefaultRegistry,
	}
}

// WithVariant skips detection and reads the snapshot as v.
func WithVariant(v Variant) Option {
	return func(o *options) {
		o.variant = &v
	}
}

// WithBackend sets the container backend. The default reads HDF5 files.
func WithBackend(b container.Backend) Option {
	return func(o *options) {
		if b != nil {
			o.backend = b
		}
	}
}

// WithConfig replaces the embedded family, name and unit tables.
func WithConfig(c *config.Config) Option {
	return func(o *options) {
		o.cfg = c
	}
}

// WithConfigFile overlays a YAML file on the embedded tables. It takes
// precedence over WithConfig.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithLogger sets the logger. The default is zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithRegistry sets the derived-array registry consulted by Get.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}
