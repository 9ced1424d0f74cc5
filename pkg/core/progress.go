package core

import (
	"context"
	"fmt"
	"io"
	"log"
)

// Event is a progress event sent by a running backend operation: either a
// percentage (optionally with a subject such as a package name) or a free-form status
type Event struct {
	Percent    int
	HasPercent bool
	Text       string
}

// ProgressFunc receives progress events from low-level managers
type ProgressFunc func(Event)

// Percent builds a percentage event, clamped to [0, 100]
func Percent(n int, subject string) Event {
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return Event{Percent: n, HasPercent: true, Text: subject}
}

// Status builds a status event
func Status(text string) Event {
	return Event{Text: text}
}

func (e Event) String() string {
	if !e.HasPercent {
		return e.Text
	}
	if e.Text == "" {
		return fmt.Sprintf("%d%%", e.Percent)
	}
	return fmt.Sprintf("%d%% %s", e.Percent, e.Text)
}

// Options is handed to every backend factory
type Options struct {
	Config *Config
	Logger *log.Logger

	// Progress is nil when no display consumes events
	Progress chan<- Event
}

// Report sends ev to the progress channel. It is a no-op without a channel.
func (o Options) Report(ctx context.Context, ev Event) {
	if o.Progress == nil {
		return
	}
	select {
	case o.Progress <- ev:
	case <-ctx.Done():
	}
}

// Func adapts Report to a ProgressFunc bound to ctx
func (o Options) Func(ctx context.Context) ProgressFunc {
	return func(ev Event) { o.Report(ctx, ev) }
}

// Log returns the configured logger or a discarding one
func (o Options) Log(prefix string) *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return log.New(o.Logger.Writer(), prefix, o.Logger.Flags())
}
