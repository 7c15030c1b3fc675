// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package serving

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/tomtom215/homevalue/internal/logging"
	"github.com/tomtom215/homevalue/internal/metrics"
)

// TrainingError is returned when the retrain command fails to start or exits
// non-zero. ExitCode is -1 when the process never ran.
type TrainingError struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *TrainingError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("retrain command failed to start: %v", e.Err)
	}
	return fmt.Sprintf("retrain command exited with status %d", e.ExitCode)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// RetrainResult is the captured output of a successful retrain.
type RetrainResult struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Retrain runs the training command to completion and captures its output.
// The command is detached from ctx cancellation, so a client that disconnects
// does not kill a training run halfway through a promotion.
func (s *Service) Retrain(ctx context.Context) (*RetrainResult, error) {
	start := time.Now()

	//nolint:gosec // command and args come from operator configuration
	cmd := exec.CommandContext(context.WithoutCancel(ctx), s.retrain.Command, s.retrain.Args...)
	cmd.Dir = s.retrain.WorkDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := logging.Ctx(ctx).With().Str("command", s.retrain.Command).Strs("args", s.retrain.Args).Logger()
	log.Info().Msg("Retrain started")

	err := cmd.Run()
	elapsed := time.Since(start)
	metrics.RecordRetrain(elapsed, err == nil)

	if err != nil {
		terr := &TrainingError{ExitCode: -1, Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			terr.ExitCode = exitErr.ExitCode()
		}
		log.Error().Err(err).Int("exit_code", terr.ExitCode).Dur("duration", elapsed).Msg("Retrain failed")
		return nil, terr
	}

	log.Info().Dur("duration", elapsed).Msg("Retrain completed")
	return &RetrainResult{Stdout: stdout.String(), Stderr: stderr.String(), Duration: elapsed}, nil
}
