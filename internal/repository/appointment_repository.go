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

const appointmentColumns = "id, client_id, start_time, end_time, created_at, updated_at"

type AppointmentRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewAppointmentRepository(db *pgxpool.Pool, logger *slog.Logger) *AppointmentRepository {
	return &AppointmentRepository{db: db, logger: logger.With("component", "appointment_repository")}
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Appointment, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+appointmentColumns+" FROM appointment WHERE id = $1", id)

	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, apperror.AppointmentNotFound(id)
	}
	if err != nil {
		return model.Appointment{}, fmt.Errorf("finding appointment %s: %w", id, err)
	}
	return a, nil
}

func (r *AppointmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Appointment, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+appointmentColumns+" FROM appointment WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("finding appointments by ids: %w", err)
	}
	defer rows.Close()

	var appointments []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

func (r *AppointmentRepository) SaveAll(ctx context.Context, appointments []model.Appointment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"appointment"},
		[]string{"id", "client_id", "start_time", "end_time"},
		pgx.CopyFromSlice(len(appointments), func(i int) ([]interface{}, error) {
			a := appointments[i]
			return []interface{}{a.ID, a.ClientID, a.StartTime, a.EndTime}, nil
		}),
	)
	if err != nil {
		return translateSaveError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	r.logger.DebugContext(ctx, "appointment page committed", "rows", len(appointments))
	return nil
}

func (r *AppointmentRepository) Update(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointment
		SET start_time = $2, end_time = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		a.ID, a.StartTime, a.EndTime)

	updated, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, apperror.AppointmentNotFound(a.ID)
	}
	if err != nil {
		return model.Appointment{}, fmt.Errorf("updating appointment %s: %w", a.ID, err)
	}
	return updated, nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM appointment WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting appointment %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.AppointmentNotFound(id)
	}
	return nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.ClientID, &a.StartTime, &a.EndTime, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
