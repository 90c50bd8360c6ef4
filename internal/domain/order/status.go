package order

import (
	"fmt"
	"time"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusShipped         Status = "shipped"
	StatusDelivered       Status = "delivered"
	StatusCancelled       Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAwaitingPayment, StatusPaid,
		StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Actor identifies who requested a transition, for audit purposes.
type Actor string

const (
	ActorGateway Actor = "gateway"
	ActorAdmin   Actor = "admin"
	ActorSystem  Actor = "system"
)

// transitions is the fixed forward graph. Cancellation is handled separately:
// it is reachable from any non-terminal state.
var transitions = map[Status][]Status{
	StatusPending:         {StatusPaid},
	StatusAwaitingPayment: {StatusPaid},
	StatusPaid:            {StatusShipped},
	StatusShipped:         {StatusDelivered},
}

// StateTransitionError indicates a transition request to an unreachable
// target. The order is left unchanged.
type StateTransitionError struct {
	From Status
	To   Status
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %q to %q", e.From, e.To)
}

// CanTransition reports whether the graph permits moving from one status to another.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyTransition moves the order to target and returns the status event to
// persist alongside it. On an unreachable target it returns a
// *StateTransitionError and leaves the order untouched.
//
// One replay case is a no-op success instead of an error: the gateway actor
// re-requesting paid on an already-paid order. Payment gateways duplicate
// callbacks, and a duplicate must observe the same outcome, not a failure.
// The returned event is nil in that case; nothing new is recorded.
func ApplyTransition(o *Order, target Status, actor Actor, notes string, at time.Time) (*StatusEvent, error) {
	if !target.Valid() {
		return nil, &StateTransitionError{From: o.Status, To: target}
	}

	if o.Status == StatusPaid && target == StatusPaid && actor == ActorGateway {
		return nil, nil
	}

	if !CanTransition(o.Status, target) {
		return nil, &StateTransitionError{From: o.Status, To: target}
	}

	ev := &StatusEvent{
		OrderID:   o.ID,
		From:      o.Status,
		To:        target,
		Actor:     actor,
		Notes:     notes,
		CreatedAt: at,
	}

	o.Status = target
	o.UpdatedAt = at
	// Only operator notes land on the order itself; gateway and system
	// notes live on the event trail.
	if notes != "" && actor == ActorAdmin {
		o.AdminNotes = notes
	}
	switch target {
	case StatusShipped:
		o.ShippingDate = &ev.CreatedAt
	case StatusDelivered:
		o.DeliveryDate = &ev.CreatedAt
	}

	return ev, nil
}
