package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/getsentry/sentry-go"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

// errorMessage is the envelope every failed request returns.
type errorMessage struct {
	Status      int                   `json:"status"`
	ErrorCode   string                `json:"error_code"`
	Message     string                `json:"message"`
	ErrorFields []apperror.FieldError `json:"error_fields,omitempty"`
	Timestamp   int64                 `json:"timestamp"`
}

// ErrorHandler translates application errors into the JSON error envelope.
// It is installed as echo's HTTPErrorHandler.
type ErrorHandler struct {
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewErrorHandler(clock clockwork.Clock, logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{clock: clock, logger: logger.With("component", "error_handler")}
}

func (h *ErrorHandler) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			// echo's own routing/binding errors keep their status.
			appErr = apperror.New(httpErr.Code, fmt.Sprintf("%d", httpErr.Code), fmt.Sprint(httpErr.Message))
		} else {
			appErr = apperror.Internal(err)
		}
	}

	ctx := c.Request().Context()
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			slog.Any("error", err),
		)
		sentry.CaptureException(err)
	} else {
		h.logger.WarnContext(ctx, "request rejected",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error_code", appErr.Code,
			"message", appErr.Message,
		)
	}

	writeErr := c.JSON(appErr.Status, errorMessage{
		Status:      appErr.Status,
		ErrorCode:   appErr.Code,
		Message:     appErr.Message,
		ErrorFields: appErr.Fields,
		Timestamp:   h.clock.Now().UnixMilli(),
	})
	if writeErr != nil {
		h.logger.ErrorContext(ctx, "failed to write error response", slog.Any("error", writeErr))
	}
}
