package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/csv"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/ingestion"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/model"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/validation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const cutoffLayout = "2006-01-02"

// ClientStore is the slice of the client repository the handler needs.
type ClientStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (model.Client, error)
	Update(ctx context.Context, c model.Client) (model.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
	TopByLoyaltyPoints(ctx context.Context, cutoff time.Time, n int) ([]model.Client, error)
}

// Ingestor runs CSV file ingestion for one entity kind.
type Ingestor interface {
	IngestFile(ctx context.Context, upload ingestion.Upload, kind csv.Kind) error
}

type ClientRequest struct {
	FirstName string       `json:"first_name" field:"firstName" validate:"notblank,max=50"`
	LastName  string       `json:"last_name" field:"lastName" validate:"notblank,max=50"`
	Email     string       `json:"email" field:"email" validate:"notblank,email"`
	Phone     string       `json:"phone" field:"phone" validate:"notblank,max=15"`
	Gender    model.Gender `json:"gender" field:"gender" validate:"required"`
	Banned    *bool        `json:"banned" field:"banned" validate:"required"`
}

type ClientResponse struct {
	ID        uuid.UUID    `json:"id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	Gender    model.Gender `json:"gender"`
	Banned    bool         `json:"banned"`
}

func newClientResponse(c model.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Gender:    c.Gender,
		Banned:    c.Banned,
	}
}

type ClientHandler struct {
	store     ClientStore
	ingestor  Ingestor
	validator *validation.Validator
	logger    *slog.Logger
}

func NewClientHandler(store ClientStore, ingestor Ingestor, validator *validation.Validator, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{
		store:     store,
		ingestor:  ingestor,
		validator: validator,
		logger:    logger.With("component", "client_handler"),
	}
}

func (h *ClientHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/clients/files", h.HandleUploadFile)
	g.GET("/clients/top", h.HandleGetTopClients)
	g.GET("/clients/:clientId", h.HandleGetClient)
	g.PUT("/clients/:clientId", h.HandleUpdateClient)
	g.DELETE("/clients/:clientId", h.HandleDeleteClient)
}

func (h *ClientHandler) HandleUploadFile(c echo.Context) error {
	upload, closeFile, err := uploadFromRequest(c)
	if err != nil {
		return err
	}
	defer closeFile()

	if err := h.ingestor.IngestFile(c.Request().Context(), upload, csv.KindClient); err != nil {
		return err
	}
	h.logger.InfoContext(c.Request().Context(), "client file ingested", "size", upload.Size)
	return c.NoContent(http.StatusCreated)
}

func (h *ClientHandler) HandleGetClient(c echo.Context) error {
	id, err := uuidParam(c, "clientId")
	if err != nil {
		return err
	}

	client, err := h.store.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newClientResponse(client))
}

func (h *ClientHandler) HandleUpdateClient(c echo.Context) error {
	id, err := uuidParam(c, "clientId")
	if err != nil {
		return err
	}

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("invalid request body", nil).WithCause(err)
	}
	if fields := h.validator.Validate(&req); len(fields) > 0 {
		return apperror.BadRequest("Argument validation failed", fields)
	}

	client := model.Client{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Gender:    req.Gender,
		Banned:    *req.Banned,
	}
	updated, err := h.store.Update(c.Request().Context(), client)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newClientResponse(updated))
}

func (h *ClientHandler) HandleDeleteClient(c echo.Context) error {
	id, err := uuidParam(c, "clientId")
	if err != nil {
		return err
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ClientHandler) HandleGetTopClients(c echo.Context) error {
	number, err := intQueryParam(c, "number")
	if err != nil {
		return err
	}
	cutoff, err := cutoffQueryParam(c, "cutoff")
	if err != nil {
		return err
	}

	clients, err := h.store.TopByLoyaltyPoints(c.Request().Context(), cutoff, number)
	if err != nil {
		return err
	}

	responses := make([]ClientResponse, 0, len(clients))
	for _, client := range clients {
		responses = append(responses, newClientResponse(client))
	}
	return c.JSON(http.StatusOK, responses)
}

func intQueryParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, apperror.BadRequest(
			fmt.Sprintf("query parameter %q is required", name),
			[]apperror.FieldError{{FieldName: name, FieldError: "required query parameter is missing"}})
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ArgumentTypeMismatch(
			fmt.Sprintf("cannot parse %q as an integer", raw)).WithCause(err)
	}
	return value, nil
}

func cutoffQueryParam(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, apperror.BadRequest(
			fmt.Sprintf("query parameter %q is required", name),
			[]apperror.FieldError{{FieldName: name, FieldError: "required query parameter is missing"}})
	}
	value, err := time.Parse(cutoffLayout, raw)
	if err != nil {
		return time.Time{}, apperror.ArgumentTypeMismatch(
			fmt.Sprintf("cannot parse %q as a date", raw)).WithCause(err)
	}
	return value, nil
}
