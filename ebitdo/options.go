package ebitdo

import (
	"time"

	log "github.com/sirupsen/logrus"
)

type config struct {
	verbose bool
	timeout time.Duration
	logger  log.FieldLogger
}

func defaultConfig() config {
	return config{
		timeout: USB_TIMEOUT,
		logger:  log.StandardLogger(),
	}
}

// Option configures an Exchange.
type Option func(*config)

// WithVerbose dumps every frame, raw and decoded, to the logger.
func WithVerbose(verbose bool) Option {
	return func(c *config) {
		c.verbose = verbose
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithLogger(logger log.FieldLogger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
