// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// countingService counts Serve calls and fails the first failFirst of them.
type countingService struct {
	calls     atomic.Int32
	failFirst int32
	started   chan struct{}
}

func newCountingService(failFirst int32) *countingService {
	return &countingService{failFirst: failFirst, started: make(chan struct{}, 8)}
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.calls.Add(1)
	select {
	case s.started <- struct{}{}:
	default:
	}
	if n <= s.failFirst {
		return errors.New("listener crashed")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return "counting" }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTreeConfigDefaults(t *testing.T) {
	t.Parallel()

	tree := NewTree(quietLogger(), TreeConfig{FailureBackoff: time.Second})
	want := DefaultTreeConfig()

	if tree.config.FailureThreshold != want.FailureThreshold {
		t.Errorf("FailureThreshold = %v, want %v", tree.config.FailureThreshold, want.FailureThreshold)
	}
	if tree.config.FailureDecay != want.FailureDecay {
		t.Errorf("FailureDecay = %v, want %v", tree.config.FailureDecay, want.FailureDecay)
	}
	if tree.config.FailureBackoff != time.Second {
		t.Errorf("FailureBackoff = %v, want %v", tree.config.FailureBackoff, time.Second)
	}
	if tree.config.ShutdownTimeout != want.ShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", tree.config.ShutdownTimeout, want.ShutdownTimeout)
	}
}

func TestTree_RestartsFailedService(t *testing.T) {
	t.Parallel()

	tree := NewTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	svc := newCountingService(1)
	tree.AddAPIService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-svc.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("service start %d not observed", i+1)
		}
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}

	if got := svc.calls.Load(); got < 2 {
		t.Errorf("Serve calls = %d, want >= 2", got)
	}
}
