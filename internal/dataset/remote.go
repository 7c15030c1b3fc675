// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package dataset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/homevalue/internal/config"
	"github.com/tomtom215/homevalue/internal/logging"
	"github.com/tomtom215/homevalue/internal/metrics"
)

// maxArchiveSize bounds the download; the real archive is about 440KB.
const maxArchiveSize = 64 << 20

// breakerName labels the circuit breaker metrics.
const breakerName = "dataset-download"

// RemoteSource downloads cal_housing.tgz and caches it on disk.
//
// Attempts are paced by a token bucket and pass through a circuit breaker that
// opens after three consecutive failures. An open breaker ends the fetch
// without spending the remaining attempts.
type RemoteSource struct {
	url       string
	checksum  string
	cachePath string
	attempts  int
	client    *http.Client
	limiter   *rate.Limiter
	cb        *gobreaker.CircuitBreaker[[]byte]
}

// NewRemoteSource creates a RemoteSource from configuration.
func NewRemoteSource(cfg *config.DatasetConfig) *RemoteSource {
	attempts := cfg.FetchAttempts
	if attempts < 1 {
		attempts = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &RemoteSource{
		url:       cfg.URL,
		checksum:  strings.ToLower(cfg.SHA256),
		cachePath: cfg.CachePath,
		attempts:  attempts,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Every(cfg.RetryInterval), 1),
		cb: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
					Msg("[CIRCUIT BREAKER] State transition")
				metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), stateToInt(to))
			},
		}),
	}
}

func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Name implements Source.
func (s *RemoteSource) Name() string {
	return "remote:" + s.url
}

// Fetch implements Source. A valid cached archive is used without touching
// the network.
func (s *RemoteSource) Fetch(ctx context.Context) (*Dataset, error) {
	if data, ok := s.readCache(); ok {
		ds, err := parseArchive(bytes.NewReader(data))
		if err == nil {
			metrics.RecordDatasetFetch("cached")
			logging.Debug().Str("path", s.cachePath).Msg("Using cached dataset archive")
			return ds, nil
		}
		logging.Warn().Err(err).Str("path", s.cachePath).Msg("Cached dataset archive is unusable, downloading again")
	}

	data, err := s.download(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	ds, err := parseArchive(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if err := s.writeCache(data); err != nil {
		logging.Warn().Err(err).Str("path", s.cachePath).Msg("Failed to cache dataset archive")
	}
	return ds, nil
}

func (s *RemoteSource) download(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for retry: %w", err)
		}

		data, err := s.cb.Execute(func() ([]byte, error) {
			return s.get(ctx)
		})
		if err == nil {
			metrics.RecordDatasetFetch("success")
			logging.Info().Str("url", s.url).Int("bytes", len(data)).Int("attempt", attempt).Msg("Dataset archive downloaded")
			return data, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			if lastErr == nil {
				lastErr = err
			}
			return nil, fmt.Errorf("download aborted: %w (last error: %v)", err, lastErr)
		}

		metrics.RecordDatasetFetch("failure")
		logging.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", s.attempts).Msg("Dataset download failed")
		lastErr = err
	}
	return nil, fmt.Errorf("download failed after %d attempts: %w", s.attempts, lastErr)
}

func (s *RemoteSource) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxArchiveSize {
		return nil, fmt.Errorf("archive exceeds %d bytes", maxArchiveSize)
	}
	if err := s.verify(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RemoteSource) verify(data []byte) error {
	if s.checksum == "" {
		return nil
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != s.checksum {
		return fmt.Errorf("checksum mismatch: got %s, want %s", got, s.checksum)
	}
	return nil
}

func (s *RemoteSource) readCache() ([]byte, bool) {
	if s.cachePath == "" {
		return nil, false
	}
	data, err := os.ReadFile(s.cachePath)
	if err != nil {
		return nil, false
	}
	if err := s.verify(data); err != nil {
		logging.Warn().Err(err).Str("path", s.cachePath).Msg("Cached dataset archive failed verification")
		return nil, false
	}
	return data, true
}

func (s *RemoteSource) writeCache(data []byte) error {
	if s.cachePath == "" {
		return nil
	}
	dir := filepath.Dir(s.cachePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".cal_housing-*.tgz")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.cachePath)
}
