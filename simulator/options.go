package simulator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/moffa90/go-hciseq/hci"
	"github.com/moffa90/go-hciseq/sequencer"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLatency sets the delay before each completion is delivered.
func WithLatency(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.latency = d
		}
	}
}

// WithManualCompletion queues completions until Complete is called.
func WithManualCompletion() Option {
	return func(c *Controller) {
		c.manual = true
	}
}

// WithLogger sets the logger used to trace controller activity.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger.With().Str("component", "simulator").Logger()
	}
}

// WithBDAddr sets the controller's initial device address.
func WithBDAddr(addr hci.BDAddr) Option {
	return func(c *Controller) {
		c.bdAddr = addr
	}
}

// WithLocalVersion sets the version reported by Read Local Version Information.
func WithLocalVersion(v hci.LocalVersion) Option {
	return func(c *Controller) {
		c.version = v
	}
}

// WithEventHook registers fn to observe every accepted command and the
// completion event built for it. fn runs with the controller locked and must
// not call back into it.
func WithEventHook(fn func(Packet, *sequencer.Event)) Option {
	return func(c *Controller) {
		c.onEvent = fn
	}
}
