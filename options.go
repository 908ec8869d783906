package dyntimeout

import (
	"log/slog"

	"github.com/ghettovoice/dyntimeout/log"
)

// Options contains options for a timeout.
// The zero value and a nil pointer are both usable.
type Options struct {
	// Log is the logger that will be used with the timeout.
	// If nil, the [log.Default] will be used.
	Log *slog.Logger
}

func (o *Options) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}
