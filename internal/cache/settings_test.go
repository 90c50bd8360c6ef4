package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/settings"
)

type countingStore struct {
	acceptance settings.Acceptance
	shipping   settings.ShippingCost

	acceptanceReads int
	shippingReads   int
}

func (s *countingStore) Acceptance(context.Context) (settings.Acceptance, error) {
	s.acceptanceReads++
	return s.acceptance, nil
}

func (s *countingStore) SetAcceptance(_ context.Context, a settings.Acceptance) error {
	s.acceptance = a
	return nil
}

func (s *countingStore) ShippingCost(context.Context) (settings.ShippingCost, error) {
	s.shippingReads++
	return s.shipping, nil
}

func (s *countingStore) SetShippingCost(_ context.Context, c settings.ShippingCost) error {
	s.shipping = c
	return nil
}

// With no Redis address every call must hit the underlying store.
func TestSettingsCachePassThrough(t *testing.T) {
	ctx := context.Background()
	next := &countingStore{
		acceptance: settings.Acceptance{Open: true},
		shipping: settings.ShippingCost{
			Amount:      decimal.RequireFromString("2.000"),
			Currency:    "KWD",
			EffectiveAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	c := NewSettingsCache(next, "", 0)

	for i := 0; i < 3; i++ {
		a, err := c.Acceptance(ctx)
		require.NoError(t, err)
		assert.True(t, a.Open)

		sc, err := c.ShippingCost(ctx)
		require.NoError(t, err)
		assert.True(t, sc.Amount.Equal(decimal.RequireFromString("2.000")))
	}
	assert.Equal(t, 3, next.acceptanceReads)
	assert.Equal(t, 3, next.shippingReads)
}

func TestSettingsCacheWriteThrough(t *testing.T) {
	ctx := context.Background()
	next := &countingStore{acceptance: settings.Acceptance{Open: true}}
	c := NewSettingsCache(next, "", time.Second)

	require.NoError(t, c.SetAcceptance(ctx, settings.Acceptance{Open: false, Message: "back soon"}))
	a, err := c.Acceptance(ctx)
	require.NoError(t, err)
	assert.False(t, a.Open)
	assert.Equal(t, "back soon", a.Message)

	want := settings.ShippingCost{Amount: decimal.RequireFromString("3.500"), Currency: "KWD"}
	require.NoError(t, c.SetShippingCost(ctx, want))
	sc, err := c.ShippingCost(ctx)
	require.NoError(t, err)
	assert.True(t, sc.Amount.Equal(want.Amount))
}
