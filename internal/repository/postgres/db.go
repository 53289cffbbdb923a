package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateDB(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

func migrateDB(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			sku TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
			image_url TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
			sold_count INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_featured BOOLEAN NOT NULL DEFAULT FALSE,
			is_new BOOLEAN NOT NULL DEFAULT FALSE,
			is_bestseller BOOLEAN NOT NULL DEFAULT FALSE,
			is_on_sale BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS coupons (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			discount_type TEXT NOT NULL,
			discount_value NUMERIC(14,2) NOT NULL DEFAULT 0,
			min_order_amount NUMERIC(14,2),
			max_discount NUMERIC(14,2),
			usage_limit INT,
			per_user_limit INT NOT NULL DEFAULT 0,
			used_count INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			starts_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ends_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (usage_limit IS NULL OR used_count <= usage_limit)
		);
		CREATE UNIQUE INDEX IF NOT EXISTS coupons_code_lower_idx ON coupons (LOWER(code));

		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			order_number TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			subtotal NUMERIC(14,2) NOT NULL CHECK (subtotal >= 0),
			discount_amount NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (discount_amount >= 0),
			points_discount NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (points_discount >= 0),
			tax_amount NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (tax_amount >= 0),
			shipping_cost NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (shipping_cost >= 0),
			total_amount NUMERIC(14,2) NOT NULL CHECK (total_amount >= 0),
			points_used BIGINT NOT NULL DEFAULT 0,
			coupon_code TEXT NOT NULL DEFAULT '',
			shipping_method TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			contact_name TEXT NOT NULL DEFAULT '',
			contact_email TEXT NOT NULL DEFAULT '',
			contact_phone TEXT NOT NULL DEFAULT '',
			shipping_address JSONB,
			shipping_zone TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS orders_user_idx ON orders (user_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS order_items (
			id SERIAL PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			product_id TEXT NOT NULL,
			name TEXT NOT NULL,
			sku TEXT NOT NULL DEFAULT '',
			price NUMERIC(14,2) NOT NULL DEFAULT 0,
			quantity INT NOT NULL DEFAULT 1 CHECK (quantity > 0),
			variant TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS order_status_history (
			id SERIAL PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			status TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			changed_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS coupon_usages (
			id SERIAL PRIMARY KEY,
			coupon_id TEXT NOT NULL REFERENCES coupons(id),
			user_id TEXT NOT NULL,
			order_id TEXT NOT NULL REFERENCES orders(id),
			used_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS coupon_usages_user_idx ON coupon_usages (coupon_id, user_id);

		CREATE TABLE IF NOT EXISTS reward_ledger (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			points BIGINT NOT NULL,
			entry_type TEXT NOT NULL,
			order_id TEXT,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS reward_ledger_user_idx ON reward_ledger (user_id, created_at DESC);
		CREATE UNIQUE INDEX IF NOT EXISTS reward_ledger_order_type_idx ON reward_ledger (order_id, entry_type) WHERE order_id IS NOT NULL;

		CREATE TABLE IF NOT EXISTS reward_balances (
			user_id TEXT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			order_id TEXT NOT NULL DEFAULT '',
			order_number TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC);
	`)
	return err
}
