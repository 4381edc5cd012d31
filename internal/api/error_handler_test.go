package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newErrorHandlerEcho(t *testing.T) (*echo.Echo, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2023, 8, 21, 0, 5, 0, 0, time.UTC))
	e := echo.New()
	e.HTTPErrorHandler = NewErrorHandler(clock, slog.Default()).Handle
	return e, clock
}

func TestErrorHandlerUnknownRoute(t *testing.T) {
	e, clock := newErrorHandlerEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusNotFound, env.Status)
	assert.Equal(t, "404", env.ErrorCode)
	assert.Equal(t, clock.Now().UnixMilli(), env.Timestamp)
}

func TestErrorHandlerUnexpectedError(t *testing.T) {
	e, _ := newErrorHandlerEcho(t)
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("kaput")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, apperror.CodeInternal, env.ErrorCode)
	assert.Equal(t, "Internal server error", env.Message)
	assert.NotContains(t, rec.Body.String(), "kaput")
}

func TestErrorHandlerFieldErrors(t *testing.T) {
	e, _ := newErrorHandlerEcho(t)
	e.GET("/violations", func(c echo.Context) error {
		return apperror.ConstraintViolation([]apperror.FieldError{
			{FieldName: "email", FieldError: "must be a well-formed email address"},
			{FieldName: "firstName", FieldError: "must not be blank"},
		})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/violations", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, apperror.CodeConstraintViolation, env.ErrorCode)
	assert.Equal(t, apperror.ConstraintViolationMessage, env.Message)
	require.Len(t, env.ErrorFields, 2)
	assert.Equal(t, "email", env.ErrorFields[0].FieldName)
}
