package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apperrors "clcconvert/internal/errors"
	"clcconvert/internal/middleware"
	"clcconvert/internal/operations"
	"clcconvert/internal/validation"
)

// ConversionService runs conversion batches
type ConversionService interface {
	ConvertBatchTo(ctx context.Context, paths []string, outputDir string) *operations.BatchReport
}

// ConversionRequest is the body of POST /api/v1/conversions
type ConversionRequest struct {
	Paths     []string `json:"paths" validate:"required,min=1,dive,required,abspath"`
	OutputDir string   `json:"output_dir,omitempty" validate:"omitempty,abspath"`
}

// Bind implements render.Binder
func (req *ConversionRequest) Bind(r *http.Request) error {
	return nil
}

// ConversionHandler handles conversion requests
type ConversionHandler struct {
	service      ConversionService
	validator    *middleware.ValidationMiddleware
	errorHandler *apperrors.ErrorHandler
	maxBatchSize int
	rootDir      string
	logger       *slog.Logger
}

// NewConversionHandler creates a new conversion handler
func NewConversionHandler(service ConversionService, validator *middleware.ValidationMiddleware, errorHandler *apperrors.ErrorHandler, maxBatchSize int, logger *slog.Logger) *ConversionHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apperrors.NewErrorHandler(logger)
	}
	if validator == nil {
		validator = middleware.NewValidationMiddleware(logger, errorHandler)
	}

	return &ConversionHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		maxBatchSize: maxBatchSize,
		logger:       logger.With(slog.String("handler", "conversions")),
	}
}

// WithRootDir confines request paths and output directories to dir.
// An empty dir lifts the restriction.
func (h *ConversionHandler) WithRootDir(dir string) *ConversionHandler {
	h.rootDir = dir
	return h
}

// outsideRoot lists the request fields that resolve outside the root dir
func (h *ConversionHandler) outsideRoot(req *ConversionRequest) []apperrors.ValidationError {
	if h.rootDir == "" {
		return nil
	}

	var violations []apperrors.ValidationError
	for i, p := range req.Paths {
		if !validation.WithinRoot(h.rootDir, p) {
			violations = append(violations, apperrors.ValidationError{
				Field:   fmt.Sprintf("paths[%d]", i),
				Message: "must be inside the server root directory",
			})
		}
	}
	if req.OutputDir != "" && !validation.WithinRoot(h.rootDir, req.OutputDir) {
		violations = append(violations, apperrors.ValidationError{
			Field:   "output_dir",
			Message: "must be inside the server root directory",
		})
	}
	return violations
}

// CreateConversion handles POST /api/v1/conversions. Files convert in
// request order; per-file failures are reported in the batch, not as an
// HTTP error.
func (h *ConversionHandler) CreateConversion(w http.ResponseWriter, r *http.Request) {
	var req ConversionRequest
	if err := render.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if h.maxBatchSize > 0 && len(req.Paths) > h.maxBatchSize {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationErrors([]apperrors.ValidationError{{
			Field:   "paths",
			Message: fmt.Sprintf("paths must contain at most %d entries", h.maxBatchSize),
		}}))
		return
	}

	if violations := h.outsideRoot(&req); len(violations) > 0 {
		h.logger.WarnContext(r.Context(), "conversion_rejected",
			slog.Int("violations", len(violations)))
		h.errorHandler.HandleError(w, r, apperrors.NewPathNotAllowed(violations))
		return
	}

	h.logger.InfoContext(r.Context(), "conversion_requested",
		slog.Int("files", len(req.Paths)),
		slog.String("output_dir", req.OutputDir))

	report := h.service.ConvertBatchTo(r.Context(), req.Paths, req.OutputDir)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, report)
}
