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

// PurchaseStore is the slice of the purchase repository the handler needs.
type PurchaseStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (model.Purchase, error)
	Update(ctx context.Context, p model.Purchase) (model.Purchase, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PurchaseRequest struct {
	Name          string          `json:"name" field:"name" validate:"notblank,max=50"`
	Price         decimal.Decimal `json:"price" field:"price" validate:"positive"`
	LoyaltyPoints int             `json:"loyalty_points" field:"loyaltyPoints" validate:"positiveorzero"`
}

type PurchaseResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	LoyaltyPoints int             `json:"loyalty_points"`
}

func newPurchaseResponse(p model.Purchase) PurchaseResponse {
	return PurchaseResponse{ID: p.ID, Name: p.Name, Price: p.Price, LoyaltyPoints: p.LoyaltyPoints}
}

type PurchaseHandler struct {
	store     PurchaseStore
	ingestor  Ingestor
	validator *validation.Validator
	logger    *slog.Logger
}

func NewPurchaseHandler(store PurchaseStore, ingestor Ingestor, validator *validation.Validator, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		store:     store,
		ingestor:  ingestor,
		validator: validator,
		logger:    logger.With("component", "purchase_handler"),
	}
}

func (h *PurchaseHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/purchases/files", h.HandleUploadFile)
	g.GET("/purchases/:purchaseId", h.HandleGetPurchase)
	g.PUT("/purchases/:purchaseId", h.HandleUpdatePurchase)
	g.DELETE("/purchases/:purchaseId", h.HandleDeletePurchase)
}

func (h *PurchaseHandler) HandleUploadFile(c echo.Context) error {
	upload, closeFile, err := uploadFromRequest(c)
	if err != nil {
		return err
	}
	defer closeFile()

	if err := h.ingestor.IngestFile(c.Request().Context(), upload, csv.KindPurchase); err != nil {
		return err
	}
	h.logger.InfoContext(c.Request().Context(), "purchase file ingested", "size", upload.Size)
	return c.NoContent(http.StatusCreated)
}

func (h *PurchaseHandler) HandleGetPurchase(c echo.Context) error {
	id, err := uuidParam(c, "purchaseId")
	if err != nil {
		return err
	}

	purchase, err := h.store.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPurchaseResponse(purchase))
}

func (h *PurchaseHandler) HandleUpdatePurchase(c echo.Context) error {
	id, err := uuidParam(c, "purchaseId")
	if err != nil {
		return err
	}

	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request body", nil).WithCause(err)
	}
	if fields := h.validator.Validate(&req); len(fields) > 0 {
		return apperror.BadRequest("Argument validation failed", fields)
	}

	purchase := model.Purchase{
		ID:            id,
		Name:          req.Name,
		Price:         req.Price,
		LoyaltyPoints: req.LoyaltyPoints,
	}
	updated, err := h.store.Update(c.Request().Context(), purchase)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPurchaseResponse(updated))
}

func (h *PurchaseHandler) HandleDeletePurchase(c echo.Context) error {
	id, err := uuidParam(c, "purchaseId")
	if err != nil {
		return err
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
