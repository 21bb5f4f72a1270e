package streamer

import (
	"time"

	"github.com/rs/zerolog"

	"levelone/internal/common"
)

type Options struct {
	Logger zerolog.Logger

	// Consumer queue capacity. Puts never block: updates are dropped when
	// the queue is full or no consumer is attached.
	QueueSize int

	DialTimeout  time.Duration
	LoginTimeout time.Duration

	// Stale-connection watchdog: maximum silence on the socket before the
	// receive loop gives up. Zero disables it.
	IdleTimeout time.Duration
}

func OptionQueueSize(n int) common.Option {
	return func(options interface{}) error {
		return common.SetOption(options, "QueueSize", n)
	}
}

func OptionDialTimeout(d time.Duration) common.Option {
	return func(options interface{}) error {
		return common.SetOption(options, "DialTimeout", d)
	}
}

func OptionLoginTimeout(d time.Duration) common.Option {
	return func(options interface{}) error {
		return common.SetOption(options, "LoginTimeout", d)
	}
}

func OptionIdleTimeout(d time.Duration) common.Option {
	return func(options interface{}) error {
		return common.SetOption(options, "IdleTimeout", d)
	}
}
