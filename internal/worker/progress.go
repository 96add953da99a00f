package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress draws a single-line progress bar for a batch.
type Progress struct {
	startTime time.Time
	output    io.Writer
	unit      string
	total     int
	completed int
	failed    int
	mu        sync.Mutex
	enabled   bool
}

// NewProgress creates a tracker for total items counted in unit ("frames").
func NewProgress(total int, unit string, enabled bool) *Progress {
	return &Progress{
		total:     total,
		unit:      unit,
		startTime: time.Now(),
		output:    os.Stderr,
		enabled:   enabled,
	}
}

// Update records the completion of an item. It is a ProgressFunc.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed, p.total, p.failed = completed, total, failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Print redraws the bar.
func (p *Progress) Print() {
	fmt.Fprint(p.output, "\r"+p.line()+"          ")
}

func (p *Progress) line() string {
	p.mu.Lock()
	completed, total, failed := p.completed, p.total, p.failed
	elapsed := time.Since(p.startTime)
	p.mu.Unlock()

	var rate float64
	var eta time.Duration
	if completed > 0 && elapsed > 0 {
		rate = float64(completed) / elapsed.Seconds()
		eta = time.Duration(float64(total-completed)/rate) * time.Second
	}

	filled := 0
	if total > 0 {
		filled = min(barWidth, completed*barWidth/total)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s%s] %d/%d %s",
		strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled),
		completed, total, p.unit)
	if failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", failed)
	}
	fmt.Fprintf(&b, " - %.1f %s/sec", rate, p.unit)
	switch {
	case completed >= total:
		fmt.Fprintf(&b, " - Done in %s", formatDuration(elapsed))
	case eta > 0:
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(eta))
	}
	return b.String()
}

// Done prints the final bar and a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.output)
	}
}

// Summary describes the finished batch.
func (p *Progress) Summary() string {
	p.mu.Lock()
	completed, total, failed := p.completed, p.total, p.failed
	elapsed := time.Since(p.startTime)
	p.mu.Unlock()

	var rate float64
	if elapsed > 0 {
		rate = float64(completed) / elapsed.Seconds()
	}
	return fmt.Sprintf("Rendered %d/%d %s (%d failed) in %s (%.1f %s/sec)",
		completed-failed, total, p.unit, failed, formatDuration(elapsed), rate, p.unit)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
