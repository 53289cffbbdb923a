package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

const couponColumns = `id, code, description, discount_type, discount_value, min_order_amount, max_discount,
	usage_limit, per_user_limit, used_count, is_active, starts_at, ends_at, created_at`

type couponRepository struct {
	db *sql.DB
}

// NewCouponRepository creates a new CouponRepository backed by Postgres.
func NewCouponRepository(db *sql.DB) repository.CouponRepository {
	return &couponRepository{db: db}
}

func scanCoupon(row rowScanner) (entity.Coupon, error) {
	var (
		c          entity.Coupon
		usageLimit sql.NullInt64
		endsAt     sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.Type, &c.Value, &c.MinOrderAmount, &c.MaxDiscount,
		&usageLimit, &c.PerUserLimit, &c.UsedCount, &c.IsActive, &c.StartsAt, &endsAt, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		c.UsageLimit = &limit
	}
	if endsAt.Valid {
		c.EndsAt = endsAt.Time
	}
	return c, nil
}

func (r *couponRepository) FindByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	c, err := scanCoupon(r.db.QueryRowContext(ctx,
		"SELECT "+couponColumns+" FROM coupons WHERE LOWER(code) = LOWER($1)", strings.TrimSpace(code)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("coupon %s: %w", code, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query coupon %s: %w", code, err)
	}
	return &c, nil
}

func (r *couponRepository) Create(ctx context.Context, c *entity.Coupon) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.StartsAt.IsZero() {
		c.StartsAt = c.CreatedAt
	}

	var usageLimit sql.NullInt64
	if c.UsageLimit != nil {
		usageLimit = sql.NullInt64{Int64: int64(*c.UsageLimit), Valid: true}
	}
	var endsAt sql.NullTime
	if !c.EndsAt.IsZero() {
		endsAt = sql.NullTime{Time: c.EndsAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO coupons ("+couponColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)",
		c.ID, c.Code, c.Description, c.Type, c.Value, c.MinOrderAmount, c.MaxDiscount,
		usageLimit, c.PerUserLimit, c.UsedCount, c.IsActive, c.StartsAt, endsAt, c.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return entity.Invalid("code", "coupon %s already exists", c.Code)
		}
		return fmt.Errorf("failed to insert coupon %s: %w", c.Code, err)
	}
	return nil
}

func (r *couponRepository) List(ctx context.Context) ([]entity.Coupon, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+couponColumns+" FROM coupons ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	var coupons []entity.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *couponRepository) CountUserUsage(ctx context.Context, couponID, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2", couponID, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count coupon usage: %w", err)
	}
	return n, nil
}
