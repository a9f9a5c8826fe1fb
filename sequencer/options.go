package sequencer

// Config holds the sequencer configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger Logger

	// AbortOnError stops a sequence at the first step whose completion reports a failure
	AbortOnError bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{}
}

// Option is a functional option for configuring the Sequencer.
type Option func(*Config)

// WithLogger sets a logger for sequencer operations.
//
// Example:
//
//	seq, err := sequencer.NewBT(transport, sequencer.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithAbortOnError makes a failed asynchronous completion end the sequence.
// The failing step's callback is delivered even when only the last step would
// normally report, and the sequencer returns to idle.
//
// By default a failed step is reported like any other completion and the
// remaining steps still run.
func WithAbortOnError() Option {
	return func(c *Config) {
		c.AbortOnError = true
	}
}
