package simulator

import (
	"log/slog"
	"time"

	"github.com/hydrosim/hydrosim-go/pkg/log"
)

// Default intervals.
const (
	DefaultGenerateInterval = time.Second
	DefaultRenderInterval   = 3 * time.Second
	DefaultRenderDelay      = time.Second
	DefaultLimitInterval    = 100 * time.Millisecond
)

// Config configures the simulator components.
type Config struct {
	// GenerateInterval is the period of random flow changes.
	GenerateInterval time.Duration

	// DisableGenerator leaves inlet flows to commands only.
	DisableGenerator bool

	// Seed fixes the generator's random sequence. Zero seeds from the clock.
	Seed uint64

	// RenderInterval is the period between render rounds.
	RenderInterval time.Duration

	// RenderDelay is the settle time before the first render round.
	RenderDelay time.Duration

	// Renderer receives readings. Nil disables rendering; reading events
	// are still emitted.
	Renderer Renderer

	// StopAtLiters stops the simulator once any meter reaches it. Zero disables it.
	StopAtLiters int64

	// LimitInterval is how often StopAtLiters is checked.
	LimitInterval time.Duration

	// Logger receives operational output. Nil disables it.
	Logger *slog.Logger

	// EventLogger receives command and reading events. Nil disables capture.
	EventLogger log.Logger
}

func (c *Config) applyDefaults() {
	if c.GenerateInterval <= 0 {
		c.GenerateInterval = DefaultGenerateInterval
	}
	if c.RenderInterval <= 0 {
		c.RenderInterval = DefaultRenderInterval
	}
	if c.RenderDelay < 0 {
		c.RenderDelay = 0
	}
	if c.LimitInterval <= 0 {
		c.LimitInterval = DefaultLimitInterval
	}
}
