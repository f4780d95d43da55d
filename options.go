package papermill

import (
	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/convert"
)

// DefaultMaxInputSize caps conversion input at 256 MiB unless
// overridden.
const DefaultMaxInputSize = 256 << 20

type config struct {
	caps         *capability.Set
	scratchDir   string
	maxInputSize int64
	env          *convert.Env
}

// Option configures an Engine.
type Option func(*config)

// WithCapabilities substitutes a capability snapshot for the
// process-wide probe. Intended for tests and embedders that manage
// their own probing.
func WithCapabilities(set capability.Set) Option {
	return func(c *config) { c.caps = &set }
}

// WithScratchDir roots conversion scratch space at dir instead of the
// system temp directory.
func WithScratchDir(dir string) Option {
	return func(c *config) { c.scratchDir = dir }
}

// WithMaxInputSize changes the input size limit. Zero disables the
// limit.
func WithMaxInputSize(n int64) Option {
	return func(c *config) { c.maxInputSize = n }
}

// WithEnv substitutes a fully built conversion environment, backends
// included. Intended for tests.
func WithEnv(env *convert.Env) Option {
	return func(c *config) { c.env = env }
}
