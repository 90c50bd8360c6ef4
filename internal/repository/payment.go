package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/payment"
)

const (
	insertAttemptSQL = `INSERT INTO payment_attempts
		(payment_id, invoice_reference, order_id, gateway_status, customer_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	getAttemptByInvoiceSQL = `SELECT id, payment_id, invoice_reference, order_id,
		gateway_status, verified, customer_ip, user_agent, created_at, updated_at
		FROM payment_attempts WHERE invoice_reference = $1`

	// The WHERE verified = FALSE guard is the single authoritative check:
	// exactly one of N concurrent claims updates the row.
	claimVerifiedSQL = `UPDATE payment_attempts
		SET verified = TRUE, gateway_status = 'paid', updated_at = now()
		WHERE id = $1 AND verified = FALSE`

	releaseVerifiedSQL = `UPDATE payment_attempts
		SET verified = FALSE, updated_at = now()
		WHERE id = $1`

	markAttemptFailedSQL = `UPDATE payment_attempts
		SET gateway_status = $2, updated_at = now()
		WHERE id = $1`
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Repository backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create persists a new payment attempt.
func (r *PaymentRepository) Create(ctx context.Context, a *payment.Attempt) error {
	err := r.pool.QueryRow(ctx, insertAttemptSQL,
		a.PaymentID, a.InvoiceReference, a.OrderID, a.GatewayStatus, a.CustomerIP, a.UserAgent,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating payment attempt %q: %w", a.InvoiceReference, err)
	}
	return nil
}

// GetByInvoice looks up an attempt by its unique invoice reference.
func (r *PaymentRepository) GetByInvoice(ctx context.Context, invoiceRef string) (*payment.Attempt, error) {
	rows, err := r.pool.Query(ctx, getAttemptByInvoiceSQL, invoiceRef)
	if err != nil {
		return nil, fmt.Errorf("getting payment attempt %q: %w", invoiceRef, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAttempt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("getting payment attempt %q: %w", invoiceRef, err)
	}
	return &a, nil
}

// ClaimVerified marks the attempt verified if no prior verification
// succeeded, reporting whether this call won the claim.
func (r *PaymentRepository) ClaimVerified(ctx context.Context, attemptID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, claimVerifiedSQL, attemptID)
	if err != nil {
		return false, fmt.Errorf("claiming payment attempt %d: %w", attemptID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseVerified clears the verified flag after a claim whose order
// transition did not commit, making the attempt claimable again.
func (r *PaymentRepository) ReleaseVerified(ctx context.Context, attemptID int64) error {
	if _, err := r.pool.Exec(ctx, releaseVerifiedSQL, attemptID); err != nil {
		return fmt.Errorf("releasing payment attempt %d: %w", attemptID, err)
	}
	return nil
}

// MarkFailed records a gateway-reported failure on the attempt.
func (r *PaymentRepository) MarkFailed(ctx context.Context, attemptID int64, gatewayStatus string) error {
	if gatewayStatus == "" {
		gatewayStatus = payment.AttemptFailed
	}
	_, err := r.pool.Exec(ctx, markAttemptFailedSQL, attemptID, gatewayStatus)
	if err != nil {
		return fmt.Errorf("marking payment attempt %d failed: %w", attemptID, err)
	}
	return nil
}

func scanAttempt(row pgx.CollectableRow) (payment.Attempt, error) {
	var a payment.Attempt
	err := row.Scan(
		&a.ID, &a.PaymentID, &a.InvoiceReference, &a.OrderID,
		&a.GatewayStatus, &a.Verified, &a.CustomerIP, &a.UserAgent,
		&a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}
