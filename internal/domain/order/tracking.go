package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// StatusInfo is the display metadata for a status, consumed by the tracking
// UI collaborator.
type StatusInfo struct {
	Color string `json:"color"`
	Title string `json:"title"`
}

var statusInfo = map[Status]StatusInfo{
	StatusPending:         {Color: "#f59e0b", Title: "Pending"},
	StatusAwaitingPayment: {Color: "#f59e0b", Title: "Awaiting payment"},
	StatusPaid:            {Color: "#3b82f6", Title: "Paid"},
	StatusShipped:         {Color: "#8b5cf6", Title: "Shipped"},
	StatusDelivered:       {Color: "#22c55e", Title: "Delivered"},
	StatusCancelled:       {Color: "#ef4444", Title: "Cancelled"},
}

// Info returns the display metadata for s.
func (s Status) Info() StatusInfo {
	return statusInfo[s]
}

// TimelineStep is one entry of the tracking timeline.
type TimelineStep struct {
	Status    Status     `json:"status"`
	Date      *time.Time `json:"date,omitempty"`
	Completed bool       `json:"completed"`
}

// Tracking is the read-only projection returned to the tracking endpoint.
type Tracking struct {
	Order      *Order
	StatusInfo StatusInfo
	Timeline   []TimelineStep
}

// Track loads an order by its public number and projects its status history
// into a timeline. Unknown numbers yield *NotFoundError; codes shaped like a
// gateway invoice reference yield the wrong-format variant so the caller can
// point the customer at the right code.
func (s *Service) Track(ctx context.Context, orderNumber string) (*Tracking, error) {
	if LooksLikeGatewayReference(orderNumber) {
		return nil, &NotFoundError{OrderNumber: orderNumber, WrongFormat: true}
	}

	o, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		return nil, errors.Wrap(err, "load order")
	}

	events, err := s.orders.ListEvents(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load status events")
	}

	return &Tracking{
		Order:      o,
		StatusInfo: o.Status.Info(),
		Timeline:   buildTimeline(o, events),
	}, nil
}

// trackSteps is the canonical forward path shown on the tracking page. A
// cancelled order instead shows the steps reached plus a cancelled entry.
var trackSteps = []Status{StatusPaid, StatusShipped, StatusDelivered}

func buildTimeline(o *Order, events []StatusEvent) []TimelineStep {
	reached := map[Status]*time.Time{
		o.Status: nil,
	}
	created := o.CreatedAt
	initial := StatusPending
	for _, ev := range events {
		t := ev.CreatedAt
		reached[ev.To] = &t
		if ev.From == StatusAwaitingPayment {
			initial = StatusAwaitingPayment
		}
	}
	if len(events) > 0 && events[0].From.Valid() {
		initial = events[0].From
	}

	steps := make([]TimelineStep, 0, len(trackSteps)+2)
	steps = append(steps, TimelineStep{Status: initial, Date: &created, Completed: true})

	for _, st := range trackSteps {
		date, ok := reached[st]
		steps = append(steps, TimelineStep{Status: st, Date: date, Completed: ok})
	}

	if o.Status == StatusCancelled {
		date := reached[StatusCancelled]
		// Drop steps never reached; the order is not going to complete them.
		kept := steps[:0]
		for _, step := range steps {
			if step.Completed {
				kept = append(kept, step)
			}
		}
		steps = append(kept, TimelineStep{Status: StatusCancelled, Date: date, Completed: true})
	}

	return steps
}
