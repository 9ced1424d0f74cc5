// Package display renders the progress of concurrent backend jobs: one
// lane per backend, fed by the job's progress channel and closed by its
// outcome.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/polnio/unipac-features/pkg/core"
)

// DefaultInterval is the spinner tick
const DefaultInterval = 100 * time.Millisecond

var frames = []string{"|", "/", "-", "\\"}

const (
	finishedGlyph = "✓"
	abortedGlyph  = "x"
)

type outcome int

const (
	pending outcome = iota
	finished
	aborted
)

type lane struct {
	id      core.ID
	message string
	summary string
	drained bool
	outcome outcome
	printed bool
}

func (l *lane) terminal() bool {
	return l.drained && l.outcome != pending
}

// Display multiplexes progress channels into one block of lines
type Display struct {
	mu       sync.Mutex
	w        io.Writer
	tty      bool
	width    int // 0 for no limit
	interval time.Duration
	lanes    []*lane
	frame    int
	drawn    int

	wake chan struct{}
}

// New creates a display with one lane per backend, in the given order
func New(w io.Writer, ids []core.ID) *Display {
	d := &Display{
		w:        w,
		tty:      IsTTY(w),
		width:    Width(w),
		interval: DefaultInterval,
		wake:     make(chan struct{}, 1),
	}
	for _, id := range ids {
		d.lanes = append(d.lanes, &lane{id: id, drained: true})
	}
	return d
}

// SetInterval changes the tick interval. It must be called before Run.
func (d *Display) SetInterval(interval time.Duration) {
	d.interval = interval
}

// SetWidth limits lines to width columns; 0 disables the limit. A line
// wrapping on a terminal would break the in-place redraw.
func (d *Display) SetWidth(width int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.width = width
}

func (d *Display) lane(id core.ID) *lane {
	for _, l := range d.lanes {
		if l.id == id {
			return l
		}
	}
	panic("display: no lane for " + id.String())
}

func (d *Display) notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Attach starts draining ch into the lane of id. The lane cannot become
// terminal before ch is closed.
func (d *Display) Attach(id core.ID, ch <-chan core.Event) {
	d.mu.Lock()
	l := d.lane(id)
	l.drained = false
	d.mu.Unlock()

	go func() {
		for ev := range ch {
			d.mu.Lock()
			l.message = ev.String()
			d.mu.Unlock()
			d.notify()
		}
		d.mu.Lock()
		l.drained = true
		d.mu.Unlock()
		d.notify()
	}()
}

// Finish marks the job of id as successful, with a summary message
func (d *Display) Finish(id core.ID, summary string) {
	d.settle(id, finished, summary)
}

// Abort marks the job of id as failed
func (d *Display) Abort(id core.ID) {
	d.settle(id, aborted, "failed")
}

func (d *Display) settle(id core.ID, o outcome, msg string) {
	d.mu.Lock()
	l := d.lane(id)
	l.outcome = o
	l.summary = msg
	d.mu.Unlock()
	d.notify()
}

// Run ticks and redraws until every lane is terminal
func (d *Display) Run() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for !d.render() {
		select {
		case <-ticker.C:
			d.mu.Lock()
			d.frame = (d.frame + 1) % len(frames)
			d.mu.Unlock()
		case <-d.wake:
		}
	}
}

// render draws the current state and reports whether every lane is terminal
func (d *Display) render() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	done := true
	for _, l := range d.lanes {
		if !l.terminal() {
			done = false
		}
	}

	// Plain writers get one line per lane, in lane order: a finished lane
	// waits for the lanes before it
	if !d.tty {
		for _, l := range d.lanes {
			if !l.terminal() {
				break
			}
			if !l.printed {
				fmt.Fprintln(d.w, d.line(l))
				l.printed = true
			}
		}
		return done
	}

	var b strings.Builder
	if d.drawn > 0 {
		fmt.Fprintf(&b, "\x1b[%dA", d.drawn)
	}
	for _, l := range d.lanes {
		b.WriteString("\r\x1b[2K")
		b.WriteString(d.line(l))
		b.WriteByte('\n')
	}
	d.drawn = len(d.lanes)
	io.WriteString(d.w, b.String())
	return done
}

// line renders one lane (must be called with lock held)
func (d *Display) line(l *lane) string {
	glyph := frames[d.frame]
	if l.terminal() {
		switch l.outcome {
		case finished:
			glyph = finishedGlyph
			if d.tty {
				glyph = finishedStyle.Render(glyph)
			}
		case aborted:
			glyph = abortedGlyph
			if d.tty {
				glyph = abortedStyle.Render(glyph)
			}
		}
	}

	msg := l.message
	if l.terminal() {
		msg = l.summary
	}
	text := Label(l.id, d.tty)
	if msg != "" {
		// glyph, space, label, colon, space
		if d.width > 0 {
			room := d.width - runewidth.StringWidth(l.id.String()) - 4
			msg = runewidth.Truncate(msg, max(room, 1), "…")
		}
		text += ": " + msg
	}
	return glyph + " " + text
}
