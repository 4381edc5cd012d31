// Package ingestion drives the streaming CSV pipeline: paginated reading of
// an uploaded file, per-page foreign-key resolution against already-committed
// parents, and bounded-size transactional batch writes.
package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/csv"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/model"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/validation"
	"github.com/google/uuid"
)

// CsvContentType is the only accepted declared media type; anything else is
// rejected before parsing, even well-formed CSV bytes.
const CsvContentType = "text/csv"

// DefaultPageSize bounds how many candidate records are alive at once and how
// many rows each transactional batch write carries.
const DefaultPageSize = 200

// Stores consumed by the orchestrator. FindByIDs resolves a whole page's
// parent references in one query; SaveAll commits a whole page in one
// transaction.

type ClientStore interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Client, error)
	SaveAll(ctx context.Context, clients []model.Client) error
}

type AppointmentStore interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Appointment, error)
	SaveAll(ctx context.Context, appointments []model.Appointment) error
}

type PurchaseStore interface {
	SaveAll(ctx context.Context, purchases []model.Purchase) error
}

type ServiceStore interface {
	SaveAll(ctx context.Context, services []model.Service) error
}

// Upload is the boundary with the HTTP layer: content, its declared media
// type, and its declared size.
type Upload struct {
	Content     io.Reader
	ContentType string
	Size        int64
}

// Service ingests one uploaded file per call. It holds no cross-request
// state; concurrent ingestions are independent.
type Service struct {
	clients      ClientStore
	appointments AppointmentStore
	purchases    PurchaseStore
	services     ServiceStore
	validator    *validation.Validator
	pageSize     int
	logger       *slog.Logger
}

func NewService(
	clients ClientStore,
	appointments AppointmentStore,
	purchases PurchaseStore,
	services ServiceStore,
	validator *validation.Validator,
	pageSize int,
	logger *slog.Logger,
) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		clients:      clients,
		appointments: appointments,
		purchases:    purchases,
		services:     services,
		validator:    validator,
		pageSize:     pageSize,
		logger:       logger.With("component", "ingestion_service"),
	}
}

// IngestFile reads the upload page by page and commits each page in its own
// transaction. Any failure aborts the request; pages committed before the
// failure stay committed.
func (s *Service) IngestFile(ctx context.Context, upload Upload, kind csv.Kind) error {
	if upload.Size == 0 || upload.ContentType != CsvContentType {
		return apperror.InvalidCsvFile()
	}

	r := csv.NewReader(upload.Content)

	header, err := r.Read()
	if err == io.EOF {
		return apperror.InvalidCsvFile()
	}
	if err != nil {
		return err
	}
	if err := csv.ValidateHeader(header, kind); err != nil {
		return err
	}

	pages, rows := 0, 0
	for {
		page, last, err := s.readPage(r, kind)
		if err != nil {
			return err
		}
		if len(page) > 0 {
			if err := s.persistPage(ctx, kind, page); err != nil {
				return err
			}
			pages++
			rows += len(page)
		}
		if last {
			break
		}
	}

	s.logger.InfoContext(ctx, "csv ingestion complete", "kind", string(kind), "rows", rows, "pages", pages)
	return nil
}

// readPage pulls up to pageSize rows, row-validating and building each. End
// of input ends the page short and marks it last.
func (s *Service) readPage(r *csv.Reader, kind csv.Kind) ([]csv.Record, bool, error) {
	page := make([]csv.Record, 0, s.pageSize)
	for len(page) < s.pageSize {
		fields, err := r.Read()
		if err == io.EOF {
			return page, true, nil
		}
		if err != nil {
			return nil, false, err
		}
		if err := csv.ValidateRow(fields, kind, r.Line()); err != nil {
			return nil, false, err
		}
		rec, err := csv.Build(kind, fields, r.Line())
		if err != nil {
			return nil, false, err
		}
		page = append(page, rec)
	}
	return page, false, nil
}

func (s *Service) persistPage(ctx context.Context, kind csv.Kind, page []csv.Record) error {
	switch kind {
	case csv.KindClient:
		return s.persistClientPage(ctx, page)
	case csv.KindAppointment:
		return s.persistAppointmentPage(ctx, page)
	case csv.KindPurchase:
		return s.persistPurchasePage(ctx, page)
	case csv.KindService:
		return s.persistServicePage(ctx, page)
	}
	return apperror.Internal(fmt.Errorf("unknown record kind %q", kind))
}

func (s *Service) persistClientPage(ctx context.Context, page []csv.Record) error {
	clients := make([]model.Client, 0, len(page))
	for _, rec := range page {
		if violations := s.validator.Validate(rec.Candidate()); len(violations) > 0 {
			return apperror.ConstraintViolation(violations)
		}
		c := rec.Client
		clients = append(clients, model.Client{
			ID:        c.ID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
			Gender:    c.Gender,
			Banned:    c.Banned,
		})
	}
	return s.clients.SaveAll(ctx, clients)
}

func (s *Service) persistAppointmentPage(ctx context.Context, page []csv.Record) error {
	ids := make([]uuid.UUID, 0, len(page))
	seen := make(map[uuid.UUID]bool, len(page))
	for _, rec := range page {
		if id := rec.Appointment.ClientID; !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	// One lookup for the whole page, not one per row.
	found, err := s.clients.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]model.Client, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	appointments := make([]model.Appointment, 0, len(page))
	for _, rec := range page {
		if violations := s.validator.Validate(rec.Candidate()); len(violations) > 0 {
			return apperror.ConstraintViolation(violations)
		}
		a := rec.Appointment
		if _, ok := byID[a.ClientID]; !ok {
			return apperror.ClientNotFound(a.ClientID)
		}
		appointments = append(appointments, model.Appointment{
			ID:        a.ID,
			ClientID:  a.ClientID,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
		})
	}
	return s.appointments.SaveAll(ctx, appointments)
}

func (s *Service) persistPurchasePage(ctx context.Context, page []csv.Record) error {
	byID, err := s.resolveAppointments(ctx, page, func(rec csv.Record) uuid.UUID {
		return rec.Purchase.AppointmentID
	})
	if err != nil {
		return err
	}

	purchases := make([]model.Purchase, 0, len(page))
	for _, rec := range page {
		if violations := s.validator.Validate(rec.Candidate()); len(violations) > 0 {
			return apperror.ConstraintViolation(violations)
		}
		p := rec.Purchase
		if _, ok := byID[p.AppointmentID]; !ok {
			return apperror.AppointmentNotFound(p.AppointmentID)
		}
		purchases = append(purchases, model.Purchase{
			ID:            p.ID,
			AppointmentID: p.AppointmentID,
			Name:          p.Name,
			Price:         p.Price,
			LoyaltyPoints: p.LoyaltyPoints,
		})
	}
	return s.purchases.SaveAll(ctx, purchases)
}

func (s *Service) persistServicePage(ctx context.Context, page []csv.Record) error {
	byID, err := s.resolveAppointments(ctx, page, func(rec csv.Record) uuid.UUID {
		return rec.Service.AppointmentID
	})
	if err != nil {
		return err
	}

	services := make([]model.Service, 0, len(page))
	for _, rec := range page {
		if violations := s.validator.Validate(rec.Candidate()); len(violations) > 0 {
			return apperror.ConstraintViolation(violations)
		}
		sv := rec.Service
		if _, ok := byID[sv.AppointmentID]; !ok {
			return apperror.AppointmentNotFound(sv.AppointmentID)
		}
		services = append(services, model.Service{
			ID:            sv.ID,
			AppointmentID: sv.AppointmentID,
			Name:          sv.Name,
			Price:         sv.Price,
			LoyaltyPoints: sv.LoyaltyPoints,
		})
	}
	return s.services.SaveAll(ctx, services)
}

// resolveAppointments batches the distinct parent ids of a purchase/service
// page into one lookup.
func (s *Service) resolveAppointments(ctx context.Context, page []csv.Record, parentID func(csv.Record) uuid.UUID) (map[uuid.UUID]model.Appointment, error) {
	ids := make([]uuid.UUID, 0, len(page))
	seen := make(map[uuid.UUID]bool, len(page))
	for _, rec := range page {
		if id := parentID(rec); !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	found, err := s.appointments.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.Appointment, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	return byID, nil
}
