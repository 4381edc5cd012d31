package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceColumns = "id, appointment_id, name, price, loyalty_points, created_at, updated_at"

type ServiceRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewServiceRepository(db *pgxpool.Pool, logger *slog.Logger) *ServiceRepository {
	return &ServiceRepository{db: db, logger: logger.With("component", "service_repository")}
}

func (r *ServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Service, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+serviceColumns+" FROM service WHERE id = $1", id)

	s, err := scanService(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Service{}, apperror.ServiceNotFound(id)
	}
	if err != nil {
		return model.Service{}, fmt.Errorf("finding service %s: %w", id, err)
	}
	return s, nil
}

func (r *ServiceRepository) SaveAll(ctx context.Context, services []model.Service) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"service"},
		[]string{"id", "appointment_id", "name", "price", "loyalty_points"},
		pgx.CopyFromSlice(len(services), func(i int) ([]interface{}, error) {
			s := services[i]
			return []interface{}{s.ID, s.AppointmentID, s.Name, s.Price, s.LoyaltyPoints}, nil
		}),
	)
	if err != nil {
		return translateSaveError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	r.logger.DebugContext(ctx, "service page committed", "rows", len(services))
	return nil
}

func (r *ServiceRepository) Update(ctx context.Context, s model.Service) (model.Service, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE service
		SET name = $2, price = $3, loyalty_points = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+serviceColumns,
		s.ID, s.Name, s.Price, s.LoyaltyPoints)

	updated, err := scanService(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Service{}, apperror.ServiceNotFound(s.ID)
	}
	if err != nil {
		return model.Service{}, fmt.Errorf("updating service %s: %w", s.ID, err)
	}
	return updated, nil
}

func (r *ServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM service WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting service %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ServiceNotFound(id)
	}
	return nil
}

func scanService(row pgx.Row) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.AppointmentID, &s.Name, &s.Price, &s.LoyaltyPoints, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
