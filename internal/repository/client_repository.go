package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = "id, first_name, last_name, email, phone, gender, banned, created_at, updated_at"

// topClientsQuery aggregates loyalty points per non-banned client over
// purchases and services of appointments starting on/after the cutoff.
// Non-banned clients with no qualifying rows are included with score 0.
// Ordering contract: points descending, ties broken by first_name descending.
const topClientsQuery = `
WITH qualifying AS (
    SELECT a.client_id, p.loyalty_points
    FROM appointment a
    JOIN purchase p ON p.appointment_id = a.id
    WHERE a.start_time >= $1
    UNION ALL
    SELECT a.client_id, s.loyalty_points
    FROM appointment a
    JOIN service s ON s.appointment_id = a.id
    WHERE a.start_time >= $1
)
SELECT c.id, c.first_name, c.last_name, c.email, c.phone, c.gender, c.banned,
       c.created_at, c.updated_at,
       COALESCE(SUM(q.loyalty_points), 0) AS client_loyalty_points
FROM client c
LEFT JOIN qualifying q ON q.client_id = c.id
WHERE c.banned = FALSE
GROUP BY c.id
ORDER BY client_loyalty_points DESC, c.first_name DESC
LIMIT $2`

type ClientRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewClientRepository(db *pgxpool.Pool, logger *slog.Logger) *ClientRepository {
	return &ClientRepository{db: db, logger: logger.With("component", "client_repository")}
}

func (r *ClientRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Client, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+clientColumns+" FROM client WHERE id = $1", id)

	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Client{}, apperror.ClientNotFound(id)
	}
	if err != nil {
		return model.Client{}, fmt.Errorf("finding client %s: %w", id, err)
	}
	return c, nil
}

// FindByIDs resolves a page's worth of ids in one query. Unknown ids are
// simply absent from the result; the caller decides whether that is an error.
func (r *ClientRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Client, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+clientColumns+" FROM client WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("finding clients by ids: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// SaveAll writes one ingestion page in a single transaction using COPY.
// Audit timestamps come from the column defaults.
func (r *ClientRepository) SaveAll(ctx context.Context, clients []model.Client) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"client"},
		[]string{"id", "first_name", "last_name", "email", "phone", "gender", "banned"},
		pgx.CopyFromSlice(len(clients), func(i int) ([]interface{}, error) {
			c := clients[i]
			return []interface{}{c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Gender, c.Banned}, nil
		}),
	)
	if err != nil {
		return translateSaveError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	r.logger.DebugContext(ctx, "client page committed", "rows", len(clients))
	return nil
}

func (r *ClientRepository) Update(ctx context.Context, c model.Client) (model.Client, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE client
		SET first_name = $2, last_name = $3, email = $4, phone = $5,
		    gender = $6, banned = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+clientColumns,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Gender, c.Banned)

	updated, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Client{}, apperror.ClientNotFound(c.ID)
	}
	if err != nil {
		return model.Client{}, fmt.Errorf("updating client %s: %w", c.ID, err)
	}
	return updated, nil
}

// Delete removes the client; appointments and their purchases/services go
// with it via ON DELETE CASCADE.
func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM client WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting client %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ClientNotFound(id)
	}
	return nil
}

// TopByLoyaltyPoints returns up to n non-banned clients ranked by qualifying
// loyalty points since the cutoff date.
func (r *ClientRepository) TopByLoyaltyPoints(ctx context.Context, cutoff time.Time, n int) ([]model.Client, error) {
	rows, err := r.db.Query(ctx, topClientsQuery, cutoff, n)
	if err != nil {
		return nil, fmt.Errorf("querying top clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		var points int64
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
			&c.Gender, &c.Banned, &c.CreatedAt, &c.UpdatedAt, &points); err != nil {
			return nil, fmt.Errorf("scanning top client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func scanClient(row pgx.Row) (model.Client, error) {
	var c model.Client
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Gender, &c.Banned, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
