package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerDraws(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerTo(context.Background(), &buf, "Rendering...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Rendering...") {
		t.Errorf("spinner output = %q, want message", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\r") {
		t.Error("spinner should clear its line when stopped")
	}
}

func TestSpinnerStopTwice(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerTo(context.Background(), &buf, "x")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerContextCancel(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerTo(ctx, &buf, "x")
	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after context cancellation")
	}
}
