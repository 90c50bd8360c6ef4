package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackWrongFormatCode(t *testing.T) {
	svc := testService(newFakeOrders())

	for _, code := range []string{"INV-000042", "123456"} {
		_, err := svc.Track(context.Background(), code)

		var nf *NotFoundError
		require.ErrorAs(t, err, &nf, "code %q", code)
		assert.True(t, nf.WrongFormat)
	}
}

func TestTrackUnknownOrder(t *testing.T) {
	svc := testService(newFakeOrders())

	_, err := svc.Track(context.Background(), "ORD-DEADBEEF")

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.False(t, nf.WrongFormat)
}

func TestTrackTimelineProgression(t *testing.T) {
	orders := newFakeOrders()
	svc := testService(orders)

	created, err := svc.Create(context.Background(), validRequest(CreateItem{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	tr, err := svc.Track(context.Background(), created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "Pending", tr.StatusInfo.Title)

	// pending + paid + shipped + delivered.
	require.Len(t, tr.Timeline, 4)
	assert.Equal(t, StatusPending, tr.Timeline[0].Status)
	assert.True(t, tr.Timeline[0].Completed)
	for _, step := range tr.Timeline[1:] {
		assert.False(t, step.Completed, "step %s", step.Status)
		assert.Nil(t, step.Date)
	}

	_, err = svc.ForceStatus(context.Background(), created.ID, StatusPaid, "")
	require.NoError(t, err)
	_, err = svc.ForceStatus(context.Background(), created.ID, StatusShipped, "")
	require.NoError(t, err)

	tr, err = svc.Track(context.Background(), created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "Shipped", tr.StatusInfo.Title)

	require.Len(t, tr.Timeline, 4)
	assert.True(t, tr.Timeline[1].Completed)
	require.NotNil(t, tr.Timeline[1].Date)
	assert.True(t, tr.Timeline[2].Completed)
	assert.False(t, tr.Timeline[3].Completed)
}

func TestTrackTimelineGatewayOrderStartsAwaitingPayment(t *testing.T) {
	orders := newFakeOrders()
	svc := testService(orders)

	req := validRequest(CreateItem{ProductID: 1, Quantity: 1})
	req.PaymentMethod = "knet"
	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	tr, err := svc.Track(context.Background(), created.OrderNumber)
	require.NoError(t, err)

	require.NotEmpty(t, tr.Timeline)
	assert.Equal(t, StatusAwaitingPayment, tr.Timeline[0].Status)
	assert.True(t, tr.Timeline[0].Completed)
}

func TestTrackTimelineCancelledCollapsesUnreachedSteps(t *testing.T) {
	orders := newFakeOrders()
	svc := testService(orders)

	created, err := svc.Create(context.Background(), validRequest(CreateItem{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.ForceStatus(context.Background(), created.ID, StatusPaid, "")
	require.NoError(t, err)
	_, err = svc.ForceStatus(context.Background(), created.ID, StatusCancelled, "stock issue")
	require.NoError(t, err)

	tr, err := svc.Track(context.Background(), created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "Cancelled", tr.StatusInfo.Title)

	// pending, paid, cancelled; shipped and delivered are dropped.
	require.Len(t, tr.Timeline, 3)
	assert.Equal(t, StatusPending, tr.Timeline[0].Status)
	assert.Equal(t, StatusPaid, tr.Timeline[1].Status)
	assert.Equal(t, StatusCancelled, tr.Timeline[2].Status)
	for _, step := range tr.Timeline {
		assert.True(t, step.Completed)
	}
}

func TestStatusInfoCoversAllStatuses(t *testing.T) {
	for _, s := range []Status{
		StatusPending, StatusAwaitingPayment, StatusPaid,
		StatusShipped, StatusDelivered, StatusCancelled,
	} {
		info := s.Info()
		assert.NotEmpty(t, info.Title, "status %s", s)
		assert.NotEmpty(t, info.Color, "status %s", s)
	}
}

func TestBuildTimelineDatesComeFromEvents(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	paidAt := created.Add(2 * time.Hour)

	o := &Order{ID: 1, Status: StatusPaid, CreatedAt: created}
	events := []StatusEvent{
		{OrderID: 1, From: StatusPending, To: StatusPending, Actor: ActorSystem, CreatedAt: created},
		{OrderID: 1, From: StatusPending, To: StatusPaid, Actor: ActorGateway, CreatedAt: paidAt},
	}

	steps := buildTimeline(o, events)
	require.Len(t, steps, 4)

	require.NotNil(t, steps[0].Date)
	assert.Equal(t, created, *steps[0].Date)
	require.NotNil(t, steps[1].Date)
	assert.Equal(t, paidAt, *steps[1].Date)
}
