package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestAddRejectsInvalidSpec(t *testing.T) {
	s := New(nil)
	err := s.Add("broken", "every night", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error %q does not name the job", err)
	}
}

func TestWrapLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	s := New(slog.New(slog.NewTextHandler(&buf, nil)))

	s.wrap("recompute", func(context.Context) error { return errors.New("disk full") })()

	out := buf.String()
	if !strings.Contains(out, "job failed") || !strings.Contains(out, "disk full") {
		t.Errorf("log output missing failure: %s", out)
	}
}

func TestStopCancelsJobContext(t *testing.T) {
	s := New(nil)

	var jobCtx context.Context
	s.wrap("capture", func(ctx context.Context) error {
		jobCtx = ctx
		return nil
	})()

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case <-jobCtx.Done():
	default:
		t.Error("job context not cancelled after Stop")
	}
}

func TestScheduledJobRuns(t *testing.T) {
	s := New(nil)
	ran := make(chan struct{}, 1)
	if err := s.Add("tick", "@every 1s", func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}
