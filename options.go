package framedecoder

import (
	"io"
	"log/slog"
)

// Option configures a FrameDecoder at construction.
type Option func(*FrameDecoder)

// WithLogger sets the logger used for state-transition diagnostics. If
// not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(d *FrameDecoder) {
		d.logger = logger
	}
}

// log returns the decoder's logger, falling back to a discard logger if
// none was configured.
func (d *FrameDecoder) log() *slog.Logger {
	if d.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.logger
}
