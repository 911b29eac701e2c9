package config

import (
	"context"
)

// Loader provides configuration loading capabilities. It abstracts the source
// of configuration so the admin tool can run from a file, from environment
// variables, or from both layered together.
type Loader interface {
	// Load retrieves and parses the configuration from the underlying source.
	Load(ctx context.Context) (*Config, error)
}
