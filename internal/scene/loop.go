package scene

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ErrLoopStopped is returned by Do once the loop has exited.
var ErrLoopStopped = errors.New("scene loop stopped")

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 60

type event struct {
	fn   func(*Context, FrameState) error
	done chan error
}

// Loop is the host scheduler. It owns the Context: frames and submitted
// events run one at a time on the goroutine that called Run.
type Loop struct {
	scene    *Context
	interval time.Duration
	events   chan event
	stopped  chan struct{}
	logger   *slog.Logger

	state FrameState
}

// NewLoop creates a loop ticking fps times per second.
func NewLoop(c *Context, fps int, logger *slog.Logger) *Loop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{
		scene:    c,
		interval: time.Second / time.Duration(fps),
		events:   make(chan event),
		stopped:  make(chan struct{}),
		logger:   logger,
	}
}

// Run ticks frames and serves events until ctx is done. It returns nil on
// cancellation; Run must be called at most once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	start := time.Now()
	l.logger.Info("scene loop started", "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("scene loop stopped", "frames", l.state.Frame)
			return nil
		case ev := <-l.events:
			ev.done <- ev.fn(l.scene, l.state)
		case now := <-ticker.C:
			next, err := RunFrame(l.scene, l.state, now.Sub(start))
			l.state = next
			if err != nil {
				l.logger.Warn("frame failed", "error", err)
			}
		}
	}
}

// Do runs fn on the loop goroutine between frames and returns its error.
func (l *Loop) Do(ctx context.Context, fn func(*Context) error) error {
	return l.With(ctx, func(c *Context, _ FrameState) error { return fn(c) })
}

// With is Do with the state of the last completed frame. ctx bounds delivery
// only: once the loop has taken the event, With waits for fn to return.
func (l *Loop) With(ctx context.Context, fn func(*Context, FrameState) error) error {
	ev := event{fn: fn, done: make(chan error, 1)}
	select {
	case l.events <- ev:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return fmt.Errorf("scene event not delivered: %w", ctx.Err())
	}
	return <-ev.done
}

// State returns the frame state as of the last completed frame.
func (l *Loop) State(ctx context.Context) (FrameState, error) {
	var s FrameState
	err := l.With(ctx, func(_ *Context, fs FrameState) error {
		s = fs
		return nil
	})
	return s, err
}
