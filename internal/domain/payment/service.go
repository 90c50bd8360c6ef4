package payment

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/order"
)

// Service drives payment initiation and callback verification against the
// order state machine.
type Service struct {
	gateway  Gateway
	attempts Repository
	orders   *order.Service
	store    order.Repository
}

// NewService creates a payment Service.
func NewService(gateway Gateway, attempts Repository, orders *order.Service, store order.Repository) *Service {
	return &Service{
		gateway:  gateway,
		attempts: attempts,
		orders:   orders,
		store:    store,
	}
}

// ClientMeta carries the requesting customer's network identity, recorded on
// the attempt for audit.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// InitiateResult is returned to the caller so the customer can be redirected
// to the gateway's payment page.
type InitiateResult struct {
	PaymentID        string
	InvoiceReference string
	RedirectURL      string
}

// Initiate starts a payment for an order. The order must exist, be in a
// pre-payment status, and have a positive total. A new attempt row is
// persisted per call; the order status is not touched, so a gateway failure
// leaves everything retryable.
func (s *Service) Initiate(ctx context.Context, orderID int64, methodCode string, meta ClientMeta) (*InitiateResult, error) {
	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Status != order.StatusPending && o.Status != order.StatusAwaitingPayment {
		return nil, &NotPayableError{OrderID: orderID, Reason: "status is " + string(o.Status)}
	}
	if !o.Total.IsPositive() {
		return nil, &NotPayableError{OrderID: orderID, Reason: "total is not positive"}
	}

	inv, err := s.gateway.CreateInvoice(ctx, CreateInvoiceRequest{
		OrderNumber:  o.OrderNumber,
		Amount:       o.Total,
		Currency:     o.Currency,
		MethodCode:   methodCode,
		CustomerName: o.CustomerName,
		CustomerTel:  o.CustomerPhone,
	})
	if err != nil {
		return nil, err
	}

	attempt := &Attempt{
		PaymentID:        inv.PaymentID,
		InvoiceReference: inv.InvoiceReference,
		OrderID:          o.ID,
		GatewayStatus:    AttemptInitiated,
		CustomerIP:       meta.IP,
		UserAgent:        meta.UserAgent,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, errors.Wrap(err, "persist payment attempt")
	}

	return &InitiateResult{
		PaymentID:        inv.PaymentID,
		InvoiceReference: inv.InvoiceReference,
		RedirectURL:      inv.RedirectURL,
	}, nil
}

// Verify resolves a gateway callback (or polling check) for an invoice
// reference into at most one order transition.
//
// The first verification that sees an authoritative "paid" status with a
// matching amount claims the attempt and transitions the order to paid.
// Any later call with the same reference short-circuits on the verified flag
// and returns the same order without touching it, so duplicated gateway
// callbacks are harmless. Amount mismatches never transition the order; a
// gateway-reported failure marks the attempt failed and leaves the order in
// its pre-payment status, available for retry.
//
// The claim is only ever consumed together with a committed transition: a
// paid callback racing an admin cancellation is rejected before claiming,
// and a claim whose status update fails to persist is released again.
func (s *Service) Verify(ctx context.Context, invoiceRef string) (*order.Order, error) {
	attempt, err := s.attempts.GetByInvoice(ctx, invoiceRef)
	if err != nil {
		return nil, err
	}

	o, err := s.store.GetByID(ctx, attempt.OrderID)
	if err != nil {
		return nil, err
	}

	// Prior verification already succeeded: idempotent replay.
	if attempt.Verified {
		return o, nil
	}

	state, err := s.gateway.InvoiceState(ctx, invoiceRef)
	if err != nil {
		return nil, err
	}

	switch state.Status {
	case InvoiceStatusPaid:
		if !state.Amount.Equal(o.Total) {
			return nil, &AmountMismatchError{
				InvoiceReference: invoiceRef,
				Expected:         o.Total,
				Got:              state.Amount,
			}
		}

		// An order that can no longer become paid (an admin cancelled it
		// while the customer was at the gateway) must fail before the claim.
		// A consumed claim over an unpaid order would turn every replay into
		// a false success and block the order from ever being re-verified.
		if o.Status != order.StatusPaid && !order.CanTransition(o.Status, order.StatusPaid) {
			return nil, &order.StateTransitionError{From: o.Status, To: order.StatusPaid}
		}

		claimed, err := s.attempts.ClaimVerified(ctx, attempt.ID)
		if err != nil {
			return nil, errors.Wrap(err, "claim verification")
		}
		if !claimed {
			// A concurrent call won the claim; observe its result.
			return s.store.GetByID(ctx, attempt.OrderID)
		}

		if terr := s.orders.Transition(ctx, o, order.StatusPaid, order.ActorGateway,
			"payment "+attempt.PaymentID+" verified"); terr != nil {
			// Give the claim back so the next callback can try again.
			if rerr := s.attempts.ReleaseVerified(ctx, attempt.ID); rerr != nil {
				return nil, errors.Wrap(rerr, "release verification claim")
			}
			return nil, terr
		}
		return o, nil

	case InvoiceStatusFailed:
		if err := s.attempts.MarkFailed(ctx, attempt.ID, state.Status); err != nil {
			return nil, errors.Wrap(err, "mark attempt failed")
		}
		return o, nil

	default:
		// Still pending at the gateway; nothing to record yet.
		return o, nil
	}
}
