package download

import (
	"context"
	"errors"

	"github.com/neros29/mpx-Downloader/internal/logger"
)

// ErrorHandler provides centralized error handling and recording.
type ErrorHandler struct {
	service *ServiceImpl
}

// NewErrorHandler creates an error handler for the service.
func NewErrorHandler(service *ServiceImpl) *ErrorHandler {
	return &ErrorHandler{service: service}
}

// HandleError logs and records an error.
// Returns true if the error should stop execution, false if it can be ignored.
func (h *ErrorHandler) HandleError(
	ctx context.Context,
	err error,
	errorCtx *ErrorContext,
	incrementFailed bool,
) bool {
	if err == nil {
		return false
	}

	if !errors.Is(err, context.Canceled) {
		logger.Errorf(ctx, "%s failed: %v", errorCtx.Phase, err)
	}

	h.service.recordError(errorCtx, err)

	if incrementFailed {
		h.service.incrementItemsFailed(1)
	}

	return true
}

// WithErrorContext executes a function and handles any errors with the provided context.
// Returns true if execution should continue, false if it should stop.
func (h *ErrorHandler) WithErrorContext(
	ctx context.Context,
	errorCtx *ErrorContext,
	fn func() error,
) bool {
	if err := fn(); err != nil {
		return !h.HandleError(ctx, err, errorCtx, false)
	}

	return true
}
