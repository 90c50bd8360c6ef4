package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Attempt gateway statuses.
const (
	AttemptInitiated = "initiated"
	AttemptPaid      = "paid"
	AttemptFailed    = "failed"
)

// ErrAttemptNotFound is returned when no payment attempt exists for an
// invoice reference.
var ErrAttemptNotFound = errors.New("payment attempt not found")

// Attempt records one outbound payment initiation. An order may accumulate
// several attempts across retries; at most one is ever marked verified.
type Attempt struct {
	ID               int64
	PaymentID        string
	InvoiceReference string
	OrderID          int64
	GatewayStatus    string
	Verified         bool
	CustomerIP       string
	UserAgent        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Repository provides persistence for payment attempts. InvoiceReference is
// unique; a partial unique index additionally guarantees at most one verified
// attempt per order.
type Repository interface {
	Create(ctx context.Context, a *Attempt) error
	GetByInvoice(ctx context.Context, invoiceRef string) (*Attempt, error)
	// ClaimVerified atomically marks the attempt verified if and only if no
	// prior verification succeeded. It reports whether this call won the
	// claim; exactly one of N concurrent callers does.
	ClaimVerified(ctx context.Context, attemptID int64) (bool, error)
	// ReleaseVerified undoes a won claim whose order transition was not
	// committed. Without the release the verified flag would short-circuit
	// every later callback over an order that never became paid.
	ReleaseVerified(ctx context.Context, attemptID int64) error
	MarkFailed(ctx context.Context, attemptID int64, gatewayStatus string) error
}

// GatewayError indicates the payment gateway was unreachable or timed out.
// The order is left in its pre-payment status and the operation is safe to
// retry.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// AmountMismatchError indicates the gateway-reported amount does not match
// the order total. Verification never transitions the order in this case.
type AmountMismatchError struct {
	InvoiceReference string
	Expected         decimal.Decimal
	Got              decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("invoice %s amount %s does not match order total %s",
		e.InvoiceReference, e.Got, e.Expected)
}

// NotPayableError indicates an initiate request against an order that is not
// in a pre-payment status or has a non-positive total.
type NotPayableError struct {
	OrderID int64
	Reason  string
}

func (e *NotPayableError) Error() string {
	return fmt.Sprintf("order %d is not payable: %s", e.OrderID, e.Reason)
}

// Invoice statuses as normalized from the gateway.
const (
	InvoiceStatusPaid    = "paid"
	InvoiceStatusPending = "pending"
	InvoiceStatusFailed  = "failed"
)

// CreateInvoiceRequest is the outbound payload for initiating a payment.
type CreateInvoiceRequest struct {
	OrderNumber  string
	Amount       decimal.Decimal
	Currency     string
	MethodCode   string
	CustomerName string
	CustomerTel  string
}

// Invoice is the gateway's answer to an initiate call.
type Invoice struct {
	PaymentID        string
	InvoiceReference string
	RedirectURL      string
}

// InvoiceState is the gateway's authoritative status for an invoice.
type InvoiceState struct {
	Status   string
	Amount   decimal.Decimal
	Currency string
}

// Gateway abstracts the external payment provider. Both calls carry a
// bounded timeout; failures surface as *GatewayError.
type Gateway interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	InvoiceState(ctx context.Context, invoiceRef string) (*InvoiceState, error)
}
