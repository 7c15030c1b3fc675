// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package trainer

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// FormatVersion is the artifact envelope version written by EncodeModel.
const FormatVersion = 1

// Envelope is the on-disk artifact: metadata plus the family-specific model.
type Envelope struct {
	Family        string          `json:"family"`
	FormatVersion int             `json:"format_version"`
	FeatureNames  []string        `json:"feature_names"`
	TrainedAt     time.Time       `json:"trained_at"`
	Model         json.RawMessage `json:"model"`
}

// Artifact is a decoded envelope with its model.
type Artifact struct {
	Family        string
	FormatVersion int
	FeatureNames  []string
	TrainedAt     time.Time
	Model         Model
}

// EncodeModel serializes m with its feature names.
func EncodeModel(m Model, featureNames []string) ([]byte, error) {
	return encodeModelAt(m, featureNames, time.Now().UTC())
}

func encodeModelAt(m Model, featureNames []string, trainedAt time.Time) ([]byte, error) {
	if len(featureNames) != m.NumFeatures() {
		return nil, fmt.Errorf("encode model: %d feature names for %d features", len(featureNames), m.NumFeatures())
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s model: %w", m.Family(), err)
	}
	return json.Marshal(Envelope{
		Family:        m.Family(),
		FormatVersion: FormatVersion,
		FeatureNames:  featureNames,
		TrainedAt:     trainedAt,
		Model:         body,
	})
}

// DecodeModel parses an artifact written by EncodeModel.
func DecodeModel(data []byte) (*Artifact, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if env.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("decode artifact: unsupported format_version %d", env.FormatVersion)
	}

	var (
		m   Model
		err error
	)
	switch env.Family {
	case FamilyRidge, FamilyLinear:
		lm := &LinearModel{}
		err = json.Unmarshal(env.Model, lm)
		lm.family = env.Family
		if err == nil && len(lm.Coef) != lm.Features {
			err = fmt.Errorf("%d coefficients for %d features", len(lm.Coef), lm.Features)
		}
		m = lm
	case FamilyDecisionTree:
		tm := &TreeModel{}
		err = json.Unmarshal(env.Model, tm)
		if err == nil {
			err = tm.restore(FamilyDecisionTree)
		}
		m = tm
	case FamilyRandomForest:
		fm := &ForestModel{}
		err = json.Unmarshal(env.Model, fm)
		fm.family = FamilyRandomForest
		if err == nil && len(fm.Trees) == 0 {
			err = fmt.Errorf("forest has no trees")
		}
		for i, tm := range fm.Trees {
			if err != nil {
				break
			}
			if tm == nil {
				err = fmt.Errorf("tree %d is null", i)
				break
			}
			err = tm.restore(FamilyDecisionTree)
		}
		m = fm
	default:
		return nil, fmt.Errorf("decode artifact: %w: %q", ErrUnknownFamily, env.Family)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s model: %w", env.Family, err)
	}
	if len(env.FeatureNames) != m.NumFeatures() {
		return nil, fmt.Errorf("decode artifact: %d feature names for %d features", len(env.FeatureNames), m.NumFeatures())
	}

	return &Artifact{
		Family:        env.Family,
		FormatVersion: env.FormatVersion,
		FeatureNames:  env.FeatureNames,
		TrainedAt:     env.TrainedAt,
		Model:         m,
	}, nil
}

// restore sets the family and checks that every child index is in range and
// points forward, so Predict cannot loop or index out of bounds.
func (m *TreeModel) restore(family string) error {
	m.family = family
	if len(m.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i, n := range m.Nodes {
		if n.IsLeaf() {
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(m.Nodes) || n.Right >= len(m.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
		if n.Feature < 0 || n.Feature >= m.Features {
			return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, m.Features)
		}
	}
	return nil
}
