package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/discount"
)

const (
	discountColumns = `id, name, discount_type, discount_value, apply_to, product_ids,
		is_active, starts_at, expires_at, priority, created_at, updated_at`

	listDiscountsSQL = `SELECT ` + discountColumns + `
		FROM discount_rules WHERE deleted_at IS NULL ORDER BY id`

	listActiveDiscountsSQL = `SELECT ` + discountColumns + `
		FROM discount_rules WHERE deleted_at IS NULL AND is_active ORDER BY id`

	getDiscountSQL = `SELECT ` + discountColumns + `
		FROM discount_rules WHERE id = $1 AND deleted_at IS NULL`

	createDiscountSQL = `INSERT INTO discount_rules
		(name, discount_type, discount_value, apply_to, product_ids, is_active, starts_at, expires_at, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	updateDiscountSQL = `UPDATE discount_rules SET
		name = $2, discount_type = $3, discount_value = $4, apply_to = $5,
		product_ids = $6, is_active = $7, starts_at = $8, expires_at = $9,
		priority = $10, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	toggleDiscountSQL = `UPDATE discount_rules SET is_active = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	softDeleteDiscountSQL = `UPDATE discount_rules SET deleted_at = now(), is_active = FALSE
		WHERE id = $1 AND deleted_at IS NULL`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
// Deletion is soft: historical order items are untouched because they carry
// resolved values, never a rule foreign key.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// List returns all non-deleted rules ordered by id.
func (r *DiscountRepository) List(ctx context.Context) ([]discount.Rule, error) {
	rows, err := r.pool.Query(ctx, listDiscountsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing discount rules: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscountRule)
}

// ListActive returns the current rule snapshot used for pricing.
func (r *DiscountRepository) ListActive(ctx context.Context) ([]discount.Rule, error) {
	rows, err := r.pool.Query(ctx, listActiveDiscountsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing active discount rules: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscountRule)
}

// GetByID returns a single non-deleted rule.
func (r *DiscountRepository) GetByID(ctx context.Context, id int64) (*discount.Rule, error) {
	rows, err := r.pool.Query(ctx, getDiscountSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting discount rule %d: %w", id, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanDiscountRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("getting discount rule %d: %w", id, err)
	}
	return &rule, nil
}

// Create persists a new rule and fills in its generated fields.
func (r *DiscountRepository) Create(ctx context.Context, rule *discount.Rule) error {
	err := r.pool.QueryRow(ctx, createDiscountSQL,
		rule.Name, string(rule.Type), rule.Value, string(rule.ApplyTo), rule.ProductIDs,
		rule.Active, rule.StartsAt, rule.ExpiresAt, rule.Priority,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating discount rule %q: %w", rule.Name, err)
	}
	return nil
}

// Update replaces the rule's mutable fields.
func (r *DiscountRepository) Update(ctx context.Context, rule *discount.Rule) error {
	err := r.pool.QueryRow(ctx, updateDiscountSQL,
		rule.ID, rule.Name, string(rule.Type), rule.Value, string(rule.ApplyTo),
		rule.ProductIDs, rule.Active, rule.StartsAt, rule.ExpiresAt, rule.Priority,
	).Scan(&rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return discount.ErrNotFound
		}
		return fmt.Errorf("updating discount rule %d: %w", rule.ID, err)
	}
	return nil
}

// SetActive toggles the rule's enabled flag and returns the updated rule.
func (r *DiscountRepository) SetActive(ctx context.Context, id int64, active bool) (*discount.Rule, error) {
	tag, err := r.pool.Exec(ctx, toggleDiscountSQL, id, active)
	if err != nil {
		return nil, fmt.Errorf("toggling discount rule %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, discount.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// SoftDelete marks the rule deleted. Historical snapshots are unaffected.
func (r *DiscountRepository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, softDeleteDiscountSQL, id)
	if err != nil {
		return fmt.Errorf("deleting discount rule %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

func scanDiscountRule(row pgx.CollectableRow) (discount.Rule, error) {
	var (
		rule         discount.Rule
		discountType string
		applyTo      string
		value        decimal.Decimal
	)
	err := row.Scan(
		&rule.ID, &rule.Name, &discountType, &value, &applyTo, &rule.ProductIDs,
		&rule.Active, &rule.StartsAt, &rule.ExpiresAt, &rule.Priority,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	rule.Type = discount.Type(discountType)
	rule.ApplyTo = discount.Scope(applyTo)
	rule.Value = value
	return rule, err
}
