package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coffeeaccount/respect-service/internal/domain"
)

// balanceColumns must match the Scan order in scanBalance.
const balanceColumns = `user_id, respect, created_at, updated_at`

// LedgerRepo implements domain.LedgerStore backed by PostgreSQL.
type LedgerRepo struct {
	pool *pgxpool.Pool
}

// NewLedgerRepo creates a LedgerRepo from the shared connection pool.
func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

func scanBalance(row pgx.Row) (domain.RespectBalance, error) {
	var b domain.RespectBalance
	err := row.Scan(&b.UserID, &b.Respect, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *LedgerRepo) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	var respect int
	err := r.pool.QueryRow(ctx,
		`SELECT respect FROM respect_balances WHERE user_id = $1`, userID).Scan(&respect)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return respect, nil
}

func (r *LedgerRepo) CreateBalance(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO respect_balances (user_id, respect)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to create balance: %w", err)
	}
	return nil
}

// AppendEvent inserts one ledger event and moves the balance by the same delta
// in a single transaction. The UPDATE is relative (respect = respect + delta),
// so concurrent appends to the same user serialize on the row without losing
// updates.
func (r *LedgerRepo) AppendEvent(ctx context.Context, userID uuid.UUID, source string, points int, meta map[string]any) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tag, err := tx.Exec(ctx, `
		UPDATE respect_balances
		SET respect = respect + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, points)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO respect_events (user_id, source, points, meta)
		VALUES ($1, $2, $3, $4)
	`, userID, source, points, meta)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *LedgerRepo) SumPositiveInRange(ctx context.Context, userID uuid.UUID, source string, from, to time.Time) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(points), 0)
		FROM respect_events
		WHERE user_id = $1 AND source = $2 AND points > 0
		  AND created_at >= $3 AND created_at <= $4
	`, userID, source, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum positive points: %w", err)
	}
	return total, nil
}

// ListPositiveBalances returns up to limit users with respect > 0, keyset
// paginated by user ID. Pass uuid.Nil to start from the beginning.
func (r *LedgerRepo) ListPositiveBalances(ctx context.Context, afterUserID uuid.UUID, limit int) ([]domain.RespectBalance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+balanceColumns+`
		FROM respect_balances
		WHERE respect > 0 AND user_id > $1
		ORDER BY user_id
		LIMIT $2
	`, afterUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list positive balances: %w", err)
	}
	defer rows.Close()

	return collectBalances(rows)
}

func (r *LedgerRepo) ListEvents(ctx context.Context, userID uuid.UUID, limit int) ([]domain.RespectEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, source, points, meta, created_at
		FROM respect_events
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []domain.RespectEvent
	for rows.Next() {
		var ev domain.RespectEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Source, &ev.Points, &ev.Meta, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

func (r *LedgerRepo) TopBalances(ctx context.Context, limit int) ([]domain.RespectBalance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+balanceColumns+`
		FROM respect_balances
		ORDER BY respect DESC, user_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top balances: %w", err)
	}
	defer rows.Close()

	return collectBalances(rows)
}

func collectBalances(rows pgx.Rows) ([]domain.RespectBalance, error) {
	var balances []domain.RespectBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read balances: %w", err)
	}
	return balances, nil
}
