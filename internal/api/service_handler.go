package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/csv"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/model"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/validation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ServiceStore is the slice of the service repository the handler needs.
type ServiceStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (model.Service, error)
	Update(ctx context.Context, s model.Service) (model.Service, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ServiceRequest struct {
	Name          string          `json:"name" field:"name" validate:"notblank,max=50"`
	Price         decimal.Decimal `json:"price" field:"price" validate:"positive"`
	LoyaltyPoints int             `json:"loyalty_points" field:"loyaltyPoints" validate:"positiveorzero"`
}

type ServiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	LoyaltyPoints int             `json:"loyalty_points"`
}

func newServiceResponse(s model.Service) ServiceResponse {
	return ServiceResponse{ID: s.ID, Name: s.Name, Price: s.Price, LoyaltyPoints: s.LoyaltyPoints}
}

type ServiceHandler struct {
	store     ServiceStore
	ingestor  Ingestor
	validator *validation.Validator
	logger    *slog.Logger
}

func NewServiceHandler(store ServiceStore, ingestor Ingestor, validator *validation.Validator, logger *slog.Logger) *ServiceHandler {
	return &ServiceHandler{
		store:     store,
		ingestor:  ingestor,
		validator: validator,
		logger:    logger.With("component", "service_handler"),
	}
}

func (h *ServiceHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/services/files", h.HandleUploadFile)
	g.GET("/services/:serviceId", h.HandleGetService)
	g.PUT("/services/:serviceId", h.HandleUpdateService)
	g.DELETE("/services/:serviceId", h.HandleDeleteService)
}

func (h *ServiceHandler) HandleUploadFile(c echo.Context) error {
	upload, closeFile, err := uploadFromRequest(c)
	if err != nil {
		return err
	}
	defer closeFile()

	if err := h.ingestor.IngestFile(c.Request().Context(), upload, csv.KindService); err != nil {
		return err
	}
	h.logger.InfoContext(c.Request().Context(), "service file ingested", "size", upload.Size)
	return c.NoContent(http.StatusCreated)
}

func (h *ServiceHandler) HandleGetService(c echo.Context) error {
	id, err := uuidParam(c, "serviceId")
	if err != nil {
		return err
	}

	service, err := h.store.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newServiceResponse(service))
}

func (h *ServiceHandler) HandleUpdateService(c echo.Context) error {
	id, err := uuidParam(c, "serviceId")
	if err != nil {
		return err
	}

	var req ServiceRequest
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request body", nil).WithCause(err)
	}
	if fields := h.validator.Validate(&req); len(fields) > 0 {
		return apperror.BadRequest("Argument validation failed", fields)
	}

	service := model.Service{
		ID:            id,
		Name:          req.Name,
		Price:         req.Price,
		LoyaltyPoints: req.LoyaltyPoints,
	}
	updated, err := h.store.Update(c.Request().Context(), service)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newServiceResponse(updated))
}

func (h *ServiceHandler) HandleDeleteService(c echo.Context) error {
	id, err := uuidParam(c, "serviceId")
	if err != nil {
		return err
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
