// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/homevalue/internal/logging"
	"github.com/tomtom215/homevalue/internal/models"
	"github.com/tomtom215/homevalue/internal/serving"
	"github.com/tomtom215/homevalue/internal/validation"
)

// retrainSuccessMessage is the fixed message of a successful retrain.
const retrainSuccessMessage = "Retraining completed successfully"

// ModelService is the part of *serving.Service the handlers use.
type ModelService interface {
	Predict(ctx context.Context, f *models.HouseFeatures) (float64, error)
	Retrain(ctx context.Context) (*serving.RetrainResult, error)
	Health() models.HealthStatus
	ModelInfo() models.ModelInfo
}

// Handler serves the prediction API.
type Handler struct {
	svc ModelService
}

// NewHandler creates a Handler for svc.
func NewHandler(svc ModelService) *Handler {
	return &Handler{svc: svc}
}

// Predict handles POST /predict.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	f, verr := decodeFeatures(w, r)
	if verr != nil {
		respondValidation(w, r, verr)
		return
	}

	y, err := h.svc.Predict(r.Context(), f)
	if err != nil {
		var reqErr *validation.RequestValidationError
		switch {
		case errors.As(err, &reqErr):
			respondValidation(w, r, reqErr)
		case errors.Is(err, serving.ErrValidation):
			respondValidation(w, r, validation.NewRequestValidationError("body", "required", err.Error()))
		case errors.Is(err, serving.ErrPredictionLog):
			respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to record prediction", err)
		default:
			respondError(w, r, http.StatusInternalServerError, models.ErrCodePrediction, "Prediction failed", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, models.PredictionResponse{Prediction: y})
}

// Retrain handles POST /retrain. It blocks until the training command exits.
func (h *Handler) Retrain(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Retrain(r.Context())
	if err != nil {
		var terr *serving.TrainingError
		if errors.As(err, &terr) {
			writeJSON(w, http.StatusInternalServerError, models.RetrainResponse{
				Message: terr.Error(),
				Stdout:  terr.Stdout,
				Stderr:  terr.Stderr,
			})
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeRetrain, "Retraining failed", err)
		return
	}

	logging.Ctx(r.Context()).Info().Dur("duration", res.Duration).Msg("Retrain request completed")
	writeJSON(w, http.StatusOK, models.RetrainResponse{
		Message: retrainSuccessMessage,
		Stdout:  res.Stdout,
		Stderr:  res.Stderr,
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, h.svc.Health(), time.Now())
}

// Model handles GET /model.
func (h *Handler) Model(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, h.svc.ModelInfo(), time.Now())
}

// NotFound is the router's fallback for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Resource not found", nil)
}

// MethodNotAllowed is the router's fallback for known paths with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, models.ErrCodeMethod, "Method not allowed", nil)
}
