package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, ProgressBarOptions{Total: 4, Width: 8, Message: "importing", NoColor: true})

	bar.Increment()
	if !strings.Contains(buf.String(), "[██░░░░░░] 1/4 importing") {
		t.Errorf("unexpected render %q", buf.String())
	}

	bar.Finish()
	if !strings.HasSuffix(buf.String(), "[████████] 4/4 importing\n") {
		t.Errorf("unexpected final render %q", buf.String())
	}
}

func TestProgressBar_ConcurrentIncrement(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, ProgressBarOptions{Total: 50, NoColor: true})

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bar.Increment()
		}()
	}
	wg.Wait()

	if bar.Current() != 50 {
		t.Errorf("expected progress capped at 50, got %d", bar.Current())
	}
}

func TestProgressBar_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, ProgressBarOptions{NoColor: true})
	bar.Increment()
	if buf.Len() != 0 {
		t.Errorf("expected no output for zero total, got %q", buf.String())
	}
}
