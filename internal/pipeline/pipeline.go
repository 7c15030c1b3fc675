// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Package pipeline runs one training session end to end: load the split, fit
// and evaluate every registered candidate, record each as an experiment run,
// select the lowest-MSE candidate and promote it in the registry.
//
// Any failure aborts the session. A candidate that fails to fit, evaluate or
// record ends its run FAILED and Run returns ErrTrainingFailed; later
// candidates are not attempted and nothing is promoted.
//
//	p := pipeline.New(provider, recorder, reg, opts)
//	for _, c := range candidates {
//	    p.RegisterCandidate(c)
//	}
//	summary, err := p.Run(ctx)
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/homevalue/internal/dataset"
	"github.com/tomtom215/homevalue/internal/logging"
	"github.com/tomtom215/homevalue/internal/registry"
	"github.com/tomtom215/homevalue/internal/selection"
	"github.com/tomtom215/homevalue/internal/tracking"
	"github.com/tomtom215/homevalue/internal/trainer"
)

// MetricMSE is the metric every candidate is logged and selected on.
const MetricMSE = "mse"

// ErrTrainingFailed is returned when a candidate cannot be fitted, evaluated
// or recorded.
var ErrTrainingFailed = errors.New("training failed")

// SplitLoader supplies the train/test split.
type SplitLoader interface {
	Load(ctx context.Context, testSize float64, randomState int64) (*dataset.Split, error)
}

// Promoter registers the winning artifact.
type Promoter interface {
	Promote(ctx context.Context, name, runID, artifactURI string, metric float64) (*registry.ModelVersion, error)
}

// Candidate is one model configuration to fit.
type Candidate struct {
	Name   string
	Family string
	Params trainer.Params
}

// Options configures a Pipeline.
type Options struct {
	Experiment   string
	ModelName    string
	TestSize     float64
	RandomState  int64
	FeatureNames []string
}

// CandidateResult is the outcome of one candidate.
type CandidateResult struct {
	Name        string            `json:"name"`
	Family      string            `json:"family"`
	RunID       string            `json:"run_id"`
	Params      map[string]string `json:"params"`
	MSE         float64           `json:"mse"`
	ArtifactURI string            `json:"artifact_uri"`
	DurationMS  int64             `json:"duration_ms"`
}

// Summary describes a completed session.
type Summary struct {
	Experiment string                 `json:"experiment"`
	TrainRows  int                    `json:"train_rows"`
	TestRows   int                    `json:"test_rows"`
	Candidates []CandidateResult      `json:"candidates"`
	Winner     selection.Result       `json:"winner"`
	Registered *registry.ModelVersion `json:"registered"`
	DurationMS int64                  `json:"duration_ms"`
}

// Pipeline orchestrates a training session. It is safe for concurrent
// registration; Run itself processes candidates sequentially.
type Pipeline struct {
	loader   SplitLoader
	recorder *tracking.Recorder
	promoter Promoter
	opts     Options
	logger   zerolog.Logger

	candidates []Candidate
	mu         sync.RWMutex
}

// New creates a Pipeline.
func New(loader SplitLoader, recorder *tracking.Recorder, promoter Promoter, opts Options) *Pipeline {
	if opts.Experiment == "" {
		opts.Experiment = tracking.DefaultExperiment
	}
	if opts.FeatureNames == nil {
		opts.FeatureNames = dataset.FeatureNames
	}
	return &Pipeline{
		loader:   loader,
		recorder: recorder,
		promoter: promoter,
		opts:     opts,
		logger:   logging.WithComponent("pipeline"),
	}
}

// RegisterCandidate appends a candidate. Candidates run in registration order.
func (p *Pipeline) RegisterCandidate(c Candidate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c.Name == "" {
		c.Name = c.Family
	}
	p.candidates = append(p.candidates, c)
	p.logger.Debug().
		Str("candidate", c.Name).
		Str("family", c.Family).
		Msg("registered candidate")
}

// Candidates returns the registered candidates.
func (p *Pipeline) Candidates() []Candidate {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Candidate(nil), p.candidates...)
}

// Run executes the session.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	candidates := p.Candidates()
	if len(candidates) == 0 {
		return nil, selection.ErrNoCandidates
	}

	split, err := p.loader.Load(ctx, p.opts.TestSize, p.opts.RandomState)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	p.logger.Info().
		Int("train_rows", len(split.YTrain)).
		Int("test_rows", len(split.YTest)).
		Int("candidates", len(candidates)).
		Str("experiment", p.opts.Experiment).
		Msg("starting training session")

	summary := &Summary{
		Experiment: p.opts.Experiment,
		TrainRows:  len(split.YTrain),
		TestRows:   len(split.YTest),
	}
	results := make([]selection.Result, 0, len(candidates))
	for _, c := range candidates {
		cr, err := p.runCandidate(ctx, split, c)
		if err != nil {
			return nil, err
		}
		summary.Candidates = append(summary.Candidates, *cr)
		results = append(results, selection.Result{
			CandidateName: cr.Name,
			Metric:        cr.MSE,
			RunID:         cr.RunID,
			ArtifactURI:   cr.ArtifactURI,
		})
	}

	winner, err := selection.Select(results)
	if err != nil {
		return nil, err
	}
	summary.Winner = winner
	p.logger.Info().
		Str("candidate", winner.CandidateName).
		Float64("mse", winner.Metric).
		Str("run_id", winner.RunID).
		Msg("selected best candidate")

	mv, err := p.promoter.Promote(ctx, p.opts.ModelName, winner.RunID, winner.ArtifactURI, winner.Metric)
	if err != nil {
		return nil, fmt.Errorf("promote %s: %w", winner.CandidateName, err)
	}
	summary.Registered = mv
	summary.DurationMS = time.Since(start).Milliseconds()

	p.logger.Info().
		Str("model", mv.Name).
		Uint64("version", mv.Version).
		Int64("duration_ms", summary.DurationMS).
		Msg("training session complete")
	return summary, nil
}

// runCandidate fits, evaluates and records one candidate. Once the run has
// started, every failure ends it FAILED.
func (p *Pipeline) runCandidate(ctx context.Context, split *dataset.Split, c Candidate) (*CandidateResult, error) {
	start := time.Now()

	tr, err := trainer.New(c.Family, c.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: candidate %s: %w", ErrTrainingFailed, c.Name, err)
	}

	run, err := p.recorder.StartRun(ctx, p.opts.Experiment, c.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: candidate %s: %w", ErrTrainingFailed, c.Name, err)
	}
	ctx = logging.ContextWithRunID(ctx, run.RunID())
	log := logging.Ctx(ctx).With().Str("candidate", c.Name).Str("family", c.Family).Logger()

	fail := func(err error) (*CandidateResult, error) {
		if _, endErr := run.End(context.WithoutCancel(ctx), tracking.StatusFailed); endErr != nil {
			log.Error().Err(endErr).Msg("failed to end run as FAILED")
		}
		log.Error().Err(err).Msg("candidate failed")
		return nil, fmt.Errorf("%w: candidate %s: %w", ErrTrainingFailed, c.Name, err)
	}

	params := tr.Params()
	params["family"] = c.Family
	if err := run.LogParams(params); err != nil {
		return fail(err)
	}

	model, err := tr.Fit(ctx, split.XTrain, split.YTrain)
	if err != nil {
		return fail(fmt.Errorf("fit: %w", err))
	}
	mse, err := trainer.MeanSquaredError(model, split.XTest, split.YTest)
	if err != nil {
		return fail(fmt.Errorf("evaluate: %w", err))
	}
	if err := run.LogMetric(MetricMSE, mse); err != nil {
		return fail(err)
	}

	artifact, err := trainer.EncodeModel(model, p.opts.FeatureNames)
	if err != nil {
		return fail(err)
	}
	uri, err := run.LogArtifact(ctx, tracking.DefaultArtifactName, artifact)
	if err != nil {
		return fail(err)
	}

	runID, err := run.End(ctx, tracking.StatusFinished)
	if err != nil {
		return fail(err)
	}

	elapsed := time.Since(start)
	log.Info().
		Float64("mse", mse).
		Dur("duration", elapsed).
		Msg("candidate evaluated")

	return &CandidateResult{
		Name:        c.Name,
		Family:      c.Family,
		RunID:       runID,
		Params:      params,
		MSE:         mse,
		ArtifactURI: uri,
		DurationMS:  elapsed.Milliseconds(),
	}, nil
}
