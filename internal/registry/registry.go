// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Package registry promotes trained artifacts to named, versioned models.
//
// Pointers live in BadgerDB so that moving a model name to a new version is a
// single atomic transaction:
//
//	registry:model:<name>        current ModelVersion (JSON)
//	registry:seq:<name>          last issued version number
//	registry:version:<name>:<N>  ModelVersion N (JSON), kept for history
//
// Promoted artifacts are copied to <dir>/<name>/v<N>/model.json and then
// exported to the fixed serving path that the prediction server loads. If the
// export fails the previous pointer is restored, so the name never points at
// a version the server could not have picked up.
package registry

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/homevalue/internal/config"
	"github.com/tomtom215/homevalue/internal/logging"
	"github.com/tomtom215/homevalue/internal/trainer"
)

const (
	pointerKeyPrefix = "registry:model:"
	seqKeyPrefix     = "registry:seq:"
	versionKeyPrefix = "registry:version:"

	artifactFile = "model.json"
)

// ErrModelNotFound is returned when a name has never been promoted.
var ErrModelNotFound = errors.New("registered model not found")

// RegistrationError wraps every failure of a registry operation.
type RegistrationError struct {
	Name string
	Err  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registry: model %q: %v", e.Name, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// ModelVersion is one promotion of a registered model.
type ModelVersion struct {
	Name        string    `json:"name"`
	Version     uint64    `json:"version"`
	RunID       string    `json:"run_id"`
	ArtifactURI string    `json:"artifact_uri"`
	StagedPath  string    `json:"staged_path"`
	Metric      float64   `json:"metric"`
	PromotedAt  time.Time `json:"promoted_at"`
}

// Registry promotes and resolves registered models.
type Registry struct {
	db          *badger.DB
	dir         string
	servingPath string
	ownsDB      bool
	now         func() time.Time
}

// New wraps an open BadgerDB. The caller keeps ownership of db.
func New(db *badger.DB, dir, servingPath string) *Registry {
	return &Registry{
		db:          db,
		dir:         dir,
		servingPath: servingPath,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Open opens the registry's BadgerDB at cfg.Path. Close releases it.
func Open(cfg *config.RegistryConfig, servingPath string) (*Registry, error) {
	return open(cfg, servingPath, false)
}

// OpenReadOnly opens the registry for lookups only. The prediction server
// uses it once at startup, so it never holds the lock the trainer needs.
func OpenReadOnly(cfg *config.RegistryConfig, servingPath string) (*Registry, error) {
	return open(cfg, servingPath, true)
}

func open(cfg *config.RegistryConfig, servingPath string, readOnly bool) (*Registry, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = true
	opts.ReadOnly = readOnly
	opts.Logger = nil

	if !readOnly {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create registry directory: %w", err)
		}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open registry BadgerDB: %w", err)
	}

	r := New(db, cfg.Dir, servingPath)
	r.ownsDB = true
	logging.Debug().Str("path", cfg.Path).Bool("read_only", readOnly).Msg("Registry opened")
	return r, nil
}

// Close releases the BadgerDB if the registry opened it.
func (r *Registry) Close() error {
	if !r.ownsDB {
		return nil
	}
	return r.db.Close()
}

// Promote registers the artifact at artifactURI as the next version of name
// and exports it to the serving path.
func (r *Registry) Promote(ctx context.Context, name, runID, artifactURI string, metric float64) (*ModelVersion, error) {
	if err := validateName(name); err != nil {
		return nil, &RegistrationError{Name: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &RegistrationError{Name: name, Err: err}
	}
	if math.IsNaN(metric) || math.IsInf(metric, 0) {
		return nil, &RegistrationError{Name: name, Err: fmt.Errorf("metric %v is not finite", metric)}
	}

	data, err := os.ReadFile(artifactURI)
	if err != nil {
		return nil, &RegistrationError{Name: name, Err: fmt.Errorf("read artifact: %w", err)}
	}
	if _, err := trainer.DecodeModel(data); err != nil {
		return nil, &RegistrationError{Name: name, Err: fmt.Errorf("invalid artifact %s: %w", artifactURI, err)}
	}

	var (
		mv       *ModelVersion
		previous []byte
	)
	err = r.db.Update(func(txn *badger.Txn) error {
		seq, err := readSeq(txn, name)
		if err != nil {
			return err
		}
		previous, err = getValue(txn, pointerKey(name))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("read pointer: %w", err)
		}

		next := seq + 1
		staged := filepath.Join(r.dir, name, fmt.Sprintf("v%d", next), artifactFile)
		if err := writeFileAtomic(staged, data); err != nil {
			return fmt.Errorf("stage artifact: %w", err)
		}

		mv = &ModelVersion{
			Name:        name,
			Version:     next,
			RunID:       runID,
			ArtifactURI: artifactURI,
			StagedPath:  staged,
			Metric:      metric,
			PromotedAt:  r.now(),
		}
		encoded, err := json.Marshal(mv)
		if err != nil {
			return fmt.Errorf("marshal version: %w", err)
		}

		if err := txn.Set(seqKey(name), encodeSeq(next)); err != nil {
			return fmt.Errorf("set sequence: %w", err)
		}
		if err := txn.Set(versionKey(name, next), encoded); err != nil {
			return fmt.Errorf("set version: %w", err)
		}
		if err := txn.Set(pointerKey(name), encoded); err != nil {
			return fmt.Errorf("set pointer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, &RegistrationError{Name: name, Err: err}
	}

	if err := writeFileAtomic(r.servingPath, data); err != nil {
		if rerr := r.restorePointer(name, previous); rerr != nil {
			logging.Error().Err(rerr).Str("model", name).Msg("Failed to restore previous registry pointer")
		}
		return nil, &RegistrationError{Name: name, Err: fmt.Errorf("export to %s: %w", r.servingPath, err)}
	}

	logging.Ctx(ctx).Info().
		Str("model", name).
		Uint64("version", mv.Version).
		Str("run_id", runID).
		Float64("metric", metric).
		Str("serving_path", r.servingPath).
		Msg("Model promoted")
	return mv, nil
}

// restorePointer puts back the pointer that was current before a failed
// promotion, or removes it if there was none.
func (r *Registry) restorePointer(name string, previous []byte) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if previous == nil {
			return txn.Delete(pointerKey(name))
		}
		return txn.Set(pointerKey(name), previous)
	})
}

// Get returns the current version of name.
func (r *Registry) Get(ctx context.Context, name string) (*ModelVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RegistrationError{Name: name, Err: err}
	}
	var mv ModelVersion
	err := r.db.View(func(txn *badger.Txn) error {
		val, err := getValue(txn, pointerKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrModelNotFound
		}
		if err != nil {
			return fmt.Errorf("get pointer: %w", err)
		}
		return json.Unmarshal(val, &mv)
	})
	if err != nil {
		return nil, &RegistrationError{Name: name, Err: err}
	}
	return &mv, nil
}

// Versions returns every version ever promoted under name, oldest first.
func (r *Registry) Versions(ctx context.Context, name string) ([]ModelVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RegistrationError{Name: name, Err: err}
	}
	var out []ModelVersion
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(versionKeyPrefix + name + ":")
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 16})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var mv ModelVersion
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &mv)
			}); err != nil {
				return fmt.Errorf("decode version: %w", err)
			}
			out = append(out, mv)
		}
		return nil
	})
	if err != nil {
		return nil, &RegistrationError{Name: name, Err: err}
	}
	return out, nil
}

// Load decodes the artifact of the current version of name.
func (r *Registry) Load(ctx context.Context, name string) (trainer.Model, error) {
	art, err := r.LoadArtifact(ctx, name)
	if err != nil {
		return nil, err
	}
	return art.Model, nil
}

// LoadArtifact is Load with the artifact metadata.
func (r *Registry) LoadArtifact(ctx context.Context, name string) (*trainer.Artifact, error) {
	mv, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(mv.StagedPath)
	if err != nil {
		return nil, &RegistrationError{Name: name, Err: fmt.Errorf("read staged artifact: %w", err)}
	}
	art, err := trainer.DecodeModel(data)
	if err != nil {
		return nil, &RegistrationError{Name: name, Err: err}
	}
	return art, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\:`) {
		return fmt.Errorf("invalid model name")
	}
	return nil
}

func pointerKey(name string) []byte { return []byte(pointerKeyPrefix + name) }
func seqKey(name string) []byte     { return []byte(seqKeyPrefix + name) }

// versionKey zero-pads N so that prefix iteration is in version order.
func versionKey(name string, n uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", versionKeyPrefix, name, n))
}

func encodeSeq(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

func readSeq(txn *badger.Txn, name string) (uint64, error) {
	val, err := getValue(txn, seqKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("corrupt sequence for %q", name)
	}
	return binary.BigEndian.Uint64(val), nil
}

func getValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// writeFileAtomic writes through a temp file next to path and renames it over.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
