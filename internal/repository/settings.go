package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/settings"
)

const (
	getCurrentSettingSQL = `SELECT payload FROM shop_settings
		WHERE key = $1 AND is_current`

	retireSettingSQL = `UPDATE shop_settings SET is_current = FALSE
		WHERE key = $1 AND is_current`

	insertSettingSQL = `INSERT INTO shop_settings (key, payload, is_current)
		VALUES ($1, $2, TRUE)`
)

var _ settings.Store = (*SettingsRepository)(nil)

// SettingsRepository implements settings.Store backed by PostgreSQL.
//
// Writes replace the current row inside a transaction: the old row is
// retired and a new current row inserted, guarded by the partial unique
// index on (key) WHERE is_current. Concurrent readers see either the old or
// the new row, never a torn value; prior rows remain as history.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Acceptance returns the current order acceptance gate. A missing row means
// the shop never configured the gate; orders default to open.
func (r *SettingsRepository) Acceptance(ctx context.Context) (settings.Acceptance, error) {
	a := settings.Acceptance{Open: true}
	if err := r.getCurrent(ctx, settings.KeyOrdersAcceptance, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.Acceptance{Open: true}, nil
		}
		return a, err
	}
	return a, nil
}

// SetAcceptance replaces the current acceptance gate row.
func (r *SettingsRepository) SetAcceptance(ctx context.Context, a settings.Acceptance) error {
	return r.replace(ctx, settings.KeyOrdersAcceptance, a)
}

// ShippingCost returns the current shipping charge. A missing row means free
// shipping.
func (r *SettingsRepository) ShippingCost(ctx context.Context) (settings.ShippingCost, error) {
	c := settings.ShippingCost{Amount: decimal.Zero, Currency: "KWD"}
	if err := r.getCurrent(ctx, settings.KeyShippingCost, &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.ShippingCost{Amount: decimal.Zero, Currency: "KWD"}, nil
		}
		return c, err
	}
	return c, nil
}

// SetShippingCost replaces the current shipping cost row.
func (r *SettingsRepository) SetShippingCost(ctx context.Context, c settings.ShippingCost) error {
	return r.replace(ctx, settings.KeyShippingCost, c)
}

func (r *SettingsRepository) getCurrent(ctx context.Context, key string, dst any) error {
	var payload []byte
	if err := r.pool.QueryRow(ctx, getCurrentSettingSQL, key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return fmt.Errorf("getting setting %q: %w", key, err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decoding setting %q: %w", key, err)
	}
	return nil
}

func (r *SettingsRepository) replace(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding setting %q: %w", key, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning setting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, retireSettingSQL, key); err != nil {
		return fmt.Errorf("retiring setting %q: %w", key, err)
	}
	if _, err := tx.Exec(ctx, insertSettingSQL, key, payload); err != nil {
		return fmt.Errorf("inserting setting %q: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing setting %q: %w", key, err)
	}
	return nil
}
