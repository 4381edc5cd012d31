package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/csv"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/model"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/validation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AppointmentStore is the slice of the appointment repository the handler needs.
type AppointmentStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (model.Appointment, error)
	Update(ctx context.Context, a model.Appointment) (model.Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type AppointmentRequest struct {
	StartTime *time.Time `json:"start_time" field:"startTime" validate:"required"`
	EndTime   *time.Time `json:"end_time" field:"endTime" validate:"required"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func newAppointmentResponse(a model.Appointment) AppointmentResponse {
	return AppointmentResponse{ID: a.ID, StartTime: a.StartTime, EndTime: a.EndTime}
}

type AppointmentHandler struct {
	store     AppointmentStore
	ingestor  Ingestor
	validator *validation.Validator
	logger    *slog.Logger
}

func NewAppointmentHandler(store AppointmentStore, ingestor Ingestor, validator *validation.Validator, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		store:     store,
		ingestor:  ingestor,
		validator: validator,
		logger:    logger.With("component", "appointment_handler"),
	}
}

func (h *AppointmentHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/appointments/files", h.HandleUploadFile)
	g.GET("/appointments/:appointmentId", h.HandleGetAppointment)
	g.PUT("/appointments/:appointmentId", h.HandleUpdateAppointment)
	g.DELETE("/appointments/:appointmentId", h.HandleDeleteAppointment)
}

func (h *AppointmentHandler) HandleUploadFile(c echo.Context) error {
	upload, closeFile, err := uploadFromRequest(c)
	if err != nil {
		return err
	}
	defer closeFile()

	if err := h.ingestor.IngestFile(c.Request().Context(), upload, csv.KindAppointment); err != nil {
		return err
	}
	h.logger.InfoContext(c.Request().Context(), "appointment file ingested", "size", upload.Size)
	return c.NoContent(http.StatusCreated)
}

func (h *AppointmentHandler) HandleGetAppointment(c echo.Context) error {
	id, err := uuidParam(c, "appointmentId")
	if err != nil {
		return err
	}

	appointment, err := h.store.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAppointmentResponse(appointment))
}

func (h *AppointmentHandler) HandleUpdateAppointment(c echo.Context) error {
	id, err := uuidParam(c, "appointmentId")
	if err != nil {
		return err
	}

	var req AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request body", nil).WithCause(err)
	}
	if fields := h.validator.Validate(&req); len(fields) > 0 {
		return apperror.BadRequest("Argument validation failed", fields)
	}

	appointment := model.Appointment{
		ID:        id,
		StartTime: *req.StartTime,
		EndTime:   *req.EndTime,
	}
	updated, err := h.store.Update(c.Request().Context(), appointment)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAppointmentResponse(updated))
}

func (h *AppointmentHandler) HandleDeleteAppointment(c echo.Context) error {
	id, err := uuidParam(c, "appointmentId")
	if err != nil {
		return err
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
