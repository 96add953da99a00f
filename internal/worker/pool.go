// Package worker renders batches of preview frames in parallel.
package worker

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// Renderer renders one frame and returns where it was written.
type Renderer interface {
	Render(ctx context.Context, f Frame) (path string, err error)
}

// Frame is one step of an animation: its position in the sequence and the
// uTime it is rendered at.
type Frame struct {
	Index int
	Time  float64
}

// Frames returns n frames starting at start seconds, step seconds apart.
func Frames(n int, start, step float64) []Frame {
	out := make([]Frame, n)
	for i := range out {
		out[i] = Frame{Index: i, Time: start + float64(i)*step}
	}
	return out
}

// Result is the outcome of rendering one frame.
type Result struct {
	Frame   Frame
	Path    string
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each frame completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Renderer   Renderer
	OnProgress ProgressFunc
}

// Pool renders frames on a fixed number of goroutines.
type Pool struct {
	workers    int
	renderer   Renderer
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		renderer:   cfg.Renderer,
		onProgress: cfg.OnProgress,
	}
}

// Run renders every frame and returns the results ordered by frame index.
// Frames not yet started when ctx is cancelled report ctx.Err().
func (p *Pool) Run(ctx context.Context, frames []Frame) []Result {
	if len(frames) == 0 {
		return nil
	}

	frameCh := make(chan Frame, len(frames))
	for _, f := range frames {
		frameCh <- f
	}
	close(frameCh)
	resultCh := make(chan Result, len(frames))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, frameCh, resultCh)
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Result, 0, len(frames))
	failed := 0
	for r := range resultCh {
		results = append(results, r)
		if r.Err != nil {
			failed++
		}
		if p.onProgress != nil {
			p.onProgress(len(results), len(frames), failed)
		}
	}

	slices.SortFunc(results, func(a, b Result) int { return cmp.Compare(a.Frame.Index, b.Frame.Index) })
	return results
}

func (p *Pool) worker(ctx context.Context, frames <-chan Frame, results chan<- Result) {
	for f := range frames {
		if err := ctx.Err(); err != nil {
			results <- Result{Frame: f, Err: err}
			continue
		}

		start := time.Now()
		path, err := p.renderer.Render(ctx, f)
		results <- Result{
			Frame:   f,
			Path:    path,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}
