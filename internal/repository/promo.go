package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/promo"
)

const (
	getPromoByCodeSQL = `SELECT code, discount_type, value, min_subtotal, description, active
		FROM promo_codes WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	upsertPromoSQL = `INSERT INTO promo_codes (code, discount_type, value, min_subtotal, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value,
			min_subtotal = EXCLUDED.min_subtotal,
			description = EXCLUDED.description,
			active = TRUE`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode looks up an active promo code (case-insensitive).
// Returns promo.ErrInvalidCode when no matching active code exists.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Code, error) {
	rows, err := r.pool.Query(ctx, getPromoByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanPromoCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrInvalidCode
		}
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}
	return &c, nil
}

// Upsert inserts or refreshes a promo code; used by the bulk ingest tool.
func (r *PromoRepository) Upsert(ctx context.Context, c *promo.Code) error {
	_, err := r.pool.Exec(ctx, upsertPromoSQL,
		c.Code, string(c.Type), c.Value, c.MinSubtotal, c.Description,
	)
	if err != nil {
		return fmt.Errorf("upserting promo code %q: %w", c.Code, err)
	}
	return nil
}

func scanPromoCode(row pgx.CollectableRow) (promo.Code, error) {
	var (
		c            promo.Code
		discountType string
		value        decimal.Decimal
		minSubtotal  decimal.Decimal
	)
	err := row.Scan(&c.Code, &discountType, &value, &minSubtotal, &c.Description, &c.Active)
	c.Type = promo.Type(discountType)
	c.Value = value
	c.MinSubtotal = minSubtotal
	return c, err
}
