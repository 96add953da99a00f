package worker

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestProgress_Print(t *testing.T) {
	var buf bytes.Buffer

	p := NewProgress(10, "frames", true)
	p.output = &buf
	p.startTime = time.Now().Add(-10 * time.Second)

	p.Update(5, 10, 1)

	output := buf.String()
	for _, want := range []string{"█", "5/10 frames", "(1 failed)", "frames/sec", "ETA:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestProgress_Done(t *testing.T) {
	var buf bytes.Buffer

	p := NewProgress(3, "frames", true)
	p.output = &buf
	p.startTime = time.Now().Add(-3 * time.Second)

	p.Update(3, 3, 0)
	buf.Reset()

	p.Done()

	output := buf.String()
	if !strings.Contains(output, "Done in") {
		t.Errorf("expected 'Done in' in output, got: %s", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("expected output to end with newline")
	}
}

func TestProgress_Summary(t *testing.T) {
	p := NewProgress(10, "frames", false)
	p.startTime = time.Now().Add(-10 * time.Second)

	p.Update(10, 10, 2)

	summary := p.Summary()
	if !strings.Contains(summary, "8/10 frames") {
		t.Errorf("expected '8/10 frames' (successful) in summary, got: %s", summary)
	}
	if !strings.Contains(summary, "2 failed") {
		t.Errorf("expected '2 failed' in summary, got: %s", summary)
	}
}

func TestProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer

	p := NewProgress(10, "frames", false)
	p.output = &buf

	p.Update(5, 10, 0)

	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got: %s", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		expected string
		duration time.Duration
	}{
		{duration: 30 * time.Second, expected: "30s"},
		{duration: 90 * time.Second, expected: "1m30s"},
		{duration: 65 * time.Minute, expected: "1h5m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := formatDuration(tt.duration); got != tt.expected {
				t.Errorf("formatDuration(%v) = %s, want %s", tt.duration, got, tt.expected)
			}
		})
	}
}
