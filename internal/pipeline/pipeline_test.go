// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/homevalue/internal/config"
	"github.com/tomtom215/homevalue/internal/dataset"
	"github.com/tomtom215/homevalue/internal/registry"
	"github.com/tomtom215/homevalue/internal/selection"
	"github.com/tomtom215/homevalue/internal/tracking"
	"github.com/tomtom215/homevalue/internal/trainer"
)

// staticLoader returns a fixed split, or err.
type staticLoader struct {
	split *dataset.Split
	err   error
	calls int
}

func (l *staticLoader) Load(context.Context, float64, int64) (*dataset.Split, error) {
	l.calls++
	return l.split, l.err
}

// fakePromoter records promotions and optionally fails.
type fakePromoter struct {
	err   error
	calls []selection.Result
}

func (f *fakePromoter) Promote(_ context.Context, name, runID, uri string, metric float64) (*registry.ModelVersion, error) {
	f.calls = append(f.calls, selection.Result{CandidateName: name, RunID: runID, ArtifactURI: uri, Metric: metric})
	if f.err != nil {
		return nil, f.err
	}
	return &registry.ModelVersion{Name: name, Version: uint64(len(f.calls)), RunID: runID, ArtifactURI: uri, Metric: metric}, nil
}

// stepSplit is a split where y jumps from 0 to 10 past x0 = 20, so a
// tree fits it exactly and a linear model does not.
func stepSplit() *dataset.Split {
	row := func(i int) []float64 {
		r := make([]float64, len(dataset.FeatureNames))
		r[0] = float64(i)
		r[1] = float64(i % 3)
		return r
	}
	target := func(i int) float64 {
		if i > 20 {
			return 10
		}
		return 0
	}
	s := &dataset.Split{}
	for i := 0; i < 40; i++ {
		if i%5 == 0 {
			s.XTest = append(s.XTest, row(i))
			s.YTest = append(s.YTest, target(i))
		} else {
			s.XTrain = append(s.XTrain, row(i))
			s.YTrain = append(s.YTrain, target(i))
		}
	}
	return s
}

func newTestPipeline(t *testing.T, loader SplitLoader, promoter Promoter) (*Pipeline, *tracking.MemoryStore) {
	t.Helper()
	store := tracking.NewMemoryStore()
	rec := tracking.NewRecorder(store, t.TempDir())
	p := New(loader, rec, promoter, Options{ModelName: "CaliforniaHousingModel", TestSize: 0.2, RandomState: 42})
	return p, store
}

func TestRun_SelectsLowestMSE(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	promoter := &fakePromoter{}
	p, store := newTestPipeline(t, &staticLoader{split: stepSplit()}, promoter)

	p.RegisterCandidate(Candidate{Family: trainer.FamilyRidge, Params: trainer.Params{Alpha: 1}})
	p.RegisterCandidate(Candidate{Name: "tree", Family: trainer.FamilyDecisionTree})
	p.RegisterCandidate(Candidate{Name: "tree-again", Family: trainer.FamilyDecisionTree})

	summary, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(summary.Candidates) != 3 {
		t.Fatalf("len(Candidates) = %d, want 3", len(summary.Candidates))
	}
	if summary.Candidates[0].Name != trainer.FamilyRidge {
		t.Errorf("unnamed candidate Name = %q, want family name", summary.Candidates[0].Name)
	}
	// Both trees fit exactly; the first registered wins the tie.
	if summary.Winner.CandidateName != "tree" {
		t.Errorf("Winner = %q, want tree", summary.Winner.CandidateName)
	}
	if summary.Winner.Metric != 0 {
		t.Errorf("Winner MSE = %v, want 0", summary.Winner.Metric)
	}
	if summary.TrainRows != 32 || summary.TestRows != 8 {
		t.Errorf("rows = %d/%d, want 32/8", summary.TrainRows, summary.TestRows)
	}

	if len(promoter.calls) != 1 {
		t.Fatalf("Promote called %d times, want 1", len(promoter.calls))
	}
	call := promoter.calls[0]
	if call.CandidateName != "CaliforniaHousingModel" || call.RunID != summary.Winner.RunID {
		t.Errorf("Promote(%q, %q), want model name and winner run", call.CandidateName, call.RunID)
	}
	if summary.Registered == nil || summary.Registered.Version != 1 {
		t.Errorf("Registered = %+v, want version 1", summary.Registered)
	}

	runs, err := store.List(ctx, tracking.DefaultExperiment)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("recorded %d runs, want 3", len(runs))
	}
	for _, run := range runs {
		if run.Status != tracking.StatusFinished {
			t.Errorf("run %s Status = %q, want FINISHED", run.RunName, run.Status)
		}
		if _, ok := run.Metrics[MetricMSE]; !ok {
			t.Errorf("run %s has no mse metric", run.RunName)
		}
		if run.Params["family"] == "" {
			t.Errorf("run %s has no family param", run.RunName)
		}
		data, err := os.ReadFile(run.ArtifactURI)
		if err != nil {
			t.Fatalf("artifact of %s unreadable: %v", run.RunName, err)
		}
		art, err := trainer.DecodeModel(data)
		if err != nil {
			t.Fatalf("artifact of %s undecodable: %v", run.RunName, err)
		}
		if len(art.FeatureNames) != len(dataset.FeatureNames) {
			t.Errorf("artifact feature names = %v", art.FeatureNames)
		}
	}
}

func TestRun_NoCandidates(t *testing.T) {
	t.Parallel()

	loader := &staticLoader{split: stepSplit()}
	p, _ := newTestPipeline(t, loader, &fakePromoter{})
	if _, err := p.Run(context.Background()); !errors.Is(err, selection.ErrNoCandidates) {
		t.Errorf("Run() error = %v, want %v", err, selection.ErrNoCandidates)
	}
	if loader.calls != 0 {
		t.Errorf("dataset loaded %d times, want 0", loader.calls)
	}
}

func TestRun_DataUnavailable(t *testing.T) {
	t.Parallel()

	loader := &staticLoader{err: dataset.ErrDataUnavailable}
	promoter := &fakePromoter{}
	p, _ := newTestPipeline(t, loader, promoter)
	p.RegisterCandidate(Candidate{Family: trainer.FamilyRidge})

	if _, err := p.Run(context.Background()); !errors.Is(err, dataset.ErrDataUnavailable) {
		t.Errorf("Run() error = %v, want %v", err, dataset.ErrDataUnavailable)
	}
	if len(promoter.calls) != 0 {
		t.Error("Promote called after data failure")
	}
}

func TestRun_CandidateFailureAborts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	broken := stepSplit()
	broken.XTest = broken.XTest[:1] // evaluation length mismatch

	promoter := &fakePromoter{}
	p, store := newTestPipeline(t, &staticLoader{split: broken}, promoter)
	p.RegisterCandidate(Candidate{Family: trainer.FamilyRidge})
	p.RegisterCandidate(Candidate{Family: trainer.FamilyDecisionTree})

	_, err := p.Run(ctx)
	if !errors.Is(err, ErrTrainingFailed) {
		t.Fatalf("Run() error = %v, want %v", err, ErrTrainingFailed)
	}
	if !errors.Is(err, trainer.ErrInvalidTrainingData) {
		t.Errorf("Run() error = %v, want it to wrap %v", err, trainer.ErrInvalidTrainingData)
	}
	if len(promoter.calls) != 0 {
		t.Error("Promote called after candidate failure")
	}

	runs, err := store.List(ctx, tracking.DefaultExperiment)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("recorded %d runs, want 1 (later candidates skipped)", len(runs))
	}
	if runs[0].Status != tracking.StatusFailed {
		t.Errorf("Status = %q, want FAILED", runs[0].Status)
	}
}

// finishFailStore rejects saves of FINISHED records only.
type finishFailStore struct {
	*tracking.MemoryStore
}

func (s finishFailStore) Save(ctx context.Context, run *tracking.Run) error {
	if run.Status == tracking.StatusFinished {
		return errors.New("disk full")
	}
	return s.MemoryStore.Save(ctx, run)
}

func TestRun_FinishSaveFailureEndsRunFailed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := finishFailStore{tracking.NewMemoryStore()}
	promoter := &fakePromoter{}
	p := New(&staticLoader{split: stepSplit()}, tracking.NewRecorder(store, t.TempDir()), promoter,
		Options{ModelName: "CaliforniaHousingModel", TestSize: 0.2, RandomState: 42})
	p.RegisterCandidate(Candidate{Family: trainer.FamilyRidge})

	_, err := p.Run(ctx)
	if !errors.Is(err, ErrTrainingFailed) || !errors.Is(err, tracking.ErrRecordingFailed) {
		t.Fatalf("Run() error = %v, want %v wrapping %v", err, ErrTrainingFailed, tracking.ErrRecordingFailed)
	}
	if len(promoter.calls) != 0 {
		t.Error("Promote called after recording failure")
	}

	runs, err := store.List(ctx, tracking.DefaultExperiment)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 1 || runs[0].Status != tracking.StatusFailed {
		t.Fatalf("runs = %+v, want one FAILED run", runs)
	}
}

func TestRun_UnknownFamily(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, &staticLoader{split: stepSplit()}, &fakePromoter{})
	p.RegisterCandidate(Candidate{Family: "svm"})

	_, err := p.Run(context.Background())
	if !errors.Is(err, ErrTrainingFailed) || !errors.Is(err, trainer.ErrUnknownFamily) {
		t.Errorf("Run() error = %v, want %v wrapping %v", err, ErrTrainingFailed, trainer.ErrUnknownFamily)
	}
}

func TestRun_PromotionFailure(t *testing.T) {
	t.Parallel()

	regErr := &registry.RegistrationError{Name: "m", Err: errors.New("disk full")}
	p, _ := newTestPipeline(t, &staticLoader{split: stepSplit()}, &fakePromoter{err: regErr})
	p.RegisterCandidate(Candidate{Family: trainer.FamilyRidge})

	_, err := p.Run(context.Background())
	var got *registry.RegistrationError
	if !errors.As(err, &got) {
		t.Errorf("Run() error = %v, want *registry.RegistrationError", err)
	}
}

func TestRun_WithRegistry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	serving := filepath.Join(t.TempDir(), "model.json")
	reg := registry.New(db, t.TempDir(), serving)
	p, _ := newTestPipeline(t, &staticLoader{split: stepSplit()}, reg)
	p.RegisterCandidate(Candidate{Family: trainer.FamilyLinear})
	p.RegisterCandidate(Candidate{Family: trainer.FamilyRandomForest, Params: trainer.Params{NEstimators: 3, RandomState: 1}})

	summary, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(serving)
	if err != nil {
		t.Fatalf("serving artifact missing: %v", err)
	}
	art, err := trainer.DecodeModel(data)
	if err != nil {
		t.Fatalf("DecodeModel() error = %v", err)
	}
	want := map[string]string{
		trainer.FamilyLinear:       trainer.FamilyLinear,
		trainer.FamilyRandomForest: trainer.FamilyRandomForest,
	}[summary.Winner.CandidateName]
	if art.Family != want {
		t.Errorf("served family = %q, want winner family %q", art.Family, want)
	}

	mv, err := reg.Get(ctx, "CaliforniaHousingModel")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if mv.RunID != summary.Winner.RunID {
		t.Errorf("registry RunID = %q, want %q", mv.RunID, summary.Winner.RunID)
	}
}

func TestCandidatesFromConfig(t *testing.T) {
	t.Parallel()

	depth := 6
	cfg := &config.Config{
		Alpha:       0.5,
		RandomState: 7,
		MaxDepth:    &depth,
		TestSize:    0.25,
		Training: config.TrainingConfig{
			Families:        []string{"ridge", "random_forest"},
			NEstimators:     20,
			MinSamplesSplit: 4,
			Experiment:      "exp",
		},
		Registry: config.RegistryConfig{Name: "model"},
	}

	got := CandidatesFromConfig(cfg)
	if len(got) != 2 || got[0].Family != "ridge" || got[1].Family != "random_forest" {
		t.Fatalf("CandidatesFromConfig() = %+v, want ridge then random_forest", got)
	}
	want := trainer.Params{Alpha: 0.5, MaxDepth: 6, MinSamplesSplit: 4, NEstimators: 20, RandomState: 7}
	if got[1].Params != want {
		t.Errorf("Params = %+v, want %+v", got[1].Params, want)
	}

	opts := OptionsFromConfig(cfg)
	if opts.Experiment != "exp" || opts.ModelName != "model" || opts.TestSize != 0.25 || opts.RandomState != 7 {
		t.Errorf("OptionsFromConfig() = %+v", opts)
	}
}
