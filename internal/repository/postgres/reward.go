package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

type rewardRepository struct {
	db *sql.DB
}

// NewRewardRepository creates a new RewardRepository backed by Postgres.
func NewRewardRepository(db *sql.DB) repository.RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx, "SELECT balance FROM reward_balances WHERE user_id = $1", userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query reward balance: %w", err)
	}
	return balance, nil
}

func (r *rewardRepository) Entries(ctx context.Context, userID string, limit int) ([]entity.RewardEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, points, entry_type, COALESCE(order_id, ''), description, created_at FROM reward_ledger WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2",
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load reward ledger for %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []entity.RewardEntry
	for rows.Next() {
		var e entity.RewardEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Points, &e.Type, &e.OrderID, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reward entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reward rows: %w", err)
	}
	return entries, nil
}

func (r *rewardRepository) Append(ctx context.Context, entry *entity.RewardEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := appendReward(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *rewardRepository) OrderPoints(ctx context.Context, orderID string, typ entity.RewardEntryType) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(points), 0) FROM reward_ledger WHERE order_id = $1 AND entry_type = $2",
		orderID, typ,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum %s points for order %s: %w", typ, orderID, err)
	}
	return sum, nil
}

func (r *rewardRepository) Recompute(ctx context.Context, userID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var sum int64
	err = tx.QueryRowContext(ctx, "SELECT COALESCE(SUM(points), 0) FROM reward_ledger WHERE user_id = $1", userID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum reward ledger: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reward_balances (user_id, balance, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = NOW()`,
		userID, sum,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to store reward balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return sum, nil
}

// appendReward writes a ledger row and moves the materialized balance by the
// same delta inside tx. A balance that would go negative aborts with
// entity.ErrInsufficientPoints.
func appendReward(ctx context.Context, tx *sql.Tx, e *entity.RewardEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var orderID sql.NullString
	if e.OrderID != "" {
		orderID = sql.NullString{String: e.OrderID, Valid: true}
	}

	_, err := tx.ExecContext(ctx,
		"INSERT INTO reward_ledger (id, user_id, points, entry_type, order_id, description, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		e.ID, e.UserID, e.Points, e.Type, orderID, e.Description, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reward entry %s: %w", e.Type, err)
	}

	var balance int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO reward_balances (user_id, balance, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET balance = reward_balances.balance + EXCLUDED.balance, updated_at = NOW()
		 RETURNING balance`,
		e.UserID, e.Points,
	).Scan(&balance)
	if err != nil {
		return fmt.Errorf("failed to update reward balance: %w", err)
	}
	if balance < 0 {
		return fmt.Errorf("%w: balance would be %d", entity.ErrInsufficientPoints, balance)
	}
	return nil
}
