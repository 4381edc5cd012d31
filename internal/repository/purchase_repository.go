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

const purchaseColumns = "id, appointment_id, name, price, loyalty_points, created_at, updated_at"

type PurchaseRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPurchaseRepository(db *pgxpool.Pool, logger *slog.Logger) *PurchaseRepository {
	return &PurchaseRepository{db: db, logger: logger.With("component", "purchase_repository")}
}

func (r *PurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Purchase, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+purchaseColumns+" FROM purchase WHERE id = $1", id)

	p, err := scanPurchase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Purchase{}, apperror.PurchaseNotFound(id)
	}
	if err != nil {
		return model.Purchase{}, fmt.Errorf("finding purchase %s: %w", id, err)
	}
	return p, nil
}

func (r *PurchaseRepository) SaveAll(ctx context.Context, purchases []model.Purchase) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"purchase"},
		[]string{"id", "appointment_id", "name", "price", "loyalty_points"},
		pgx.CopyFromSlice(len(purchases), func(i int) ([]interface{}, error) {
			p := purchases[i]
			return []interface{}{p.ID, p.AppointmentID, p.Name, p.Price, p.LoyaltyPoints}, nil
		}),
	)
	if err != nil {
		return translateSaveError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	r.logger.DebugContext(ctx, "purchase page committed", "rows", len(purchases))
	return nil
}

func (r *PurchaseRepository) Update(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE purchase
		SET name = $2, price = $3, loyalty_points = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+purchaseColumns,
		p.ID, p.Name, p.Price, p.LoyaltyPoints)

	updated, err := scanPurchase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Purchase{}, apperror.PurchaseNotFound(p.ID)
	}
	if err != nil {
		return model.Purchase{}, fmt.Errorf("updating purchase %s: %w", p.ID, err)
	}
	return updated, nil
}

func (r *PurchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM purchase WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting purchase %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.PurchaseNotFound(id)
	}
	return nil
}

func scanPurchase(row pgx.Row) (model.Purchase, error) {
	var p model.Purchase
	err := row.Scan(&p.ID, &p.AppointmentID, &p.Name, &p.Price, &p.LoyaltyPoints, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
