package usecase

import (
	"testing"

	"dealwatch-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealEvaluatorDedupIsIdempotent(t *testing.T) {
	e := NewDealEvaluator(0.15)
	route := oneWayRoute("42", 200)
	route.ID = "r1"
	ledger := make(seenSet)
	offer := entity.Offer{OfferID: "X1", Price: 180, Cabin: entity.CabinEconomy}

	first := e.Evaluate(route, []entity.Offer{offer}, nil, ledger, t0)
	require.Len(t, first.Deals, 1)
	require.Len(t, first.NewAlerts, 1)
	assert.Equal(t, "r1", first.NewAlerts[0].RouteID)
	assert.Equal(t, int64(18000), first.NewAlerts[0].Key.PriceMinor)

	second := e.Evaluate(route, []entity.Offer{offer, offer}, nil, ledger, t0)
	assert.Empty(t, second.Deals)
	assert.Equal(t, 2, second.Suppressed)

	// A new price for the same offer is a new alert
	offer.Price = 175
	third := e.Evaluate(route, []entity.Offer{offer}, nil, ledger, t0)
	assert.Len(t, third.Deals, 1)
}

func TestDealEvaluatorThresholdFallsBackToEconomy(t *testing.T) {
	e := NewDealEvaluator(0.15)
	route := oneWayRoute("42", 200)
	route.Thresholds[entity.CabinBusiness] = 700

	ev := e.Evaluate(route, []entity.Offer{
		{OfferID: "b", Price: 650, Cabin: entity.CabinBusiness},
		{OfferID: "f", Price: 650, Cabin: entity.CabinFirst},
		{OfferID: "f2", Price: 199.99, Cabin: entity.CabinFirst},
		{OfferID: "e", Price: 200, Cabin: entity.CabinEconomy},
	}, nil, make(seenSet), t0)

	var ids []string
	for _, d := range ev.Deals {
		ids = append(ids, d.Offer.OfferID)
	}
	assert.Equal(t, []string{"b", "f2", "e"}, ids)
}

func TestDealEvaluatorVolatility(t *testing.T) {
	e := NewDealEvaluator(0.15)
	route := oneWayRoute("42", 50)
	history := entity.PriceHistory{entity.CabinEconomy: {90, 110}}

	ev := e.Evaluate(route, []entity.Offer{{OfferID: "a", Price: 84, Cabin: entity.CabinEconomy}}, history, make(seenSet), t0)
	assert.True(t, ev.Volatile)
	assert.InDelta(t, 0.16, ev.MaxChange, 1e-9)

	ev = e.Evaluate(route, []entity.Offer{{OfferID: "a", Price: 86, Cabin: entity.CabinEconomy}}, history, make(seenSet), t0)
	assert.False(t, ev.Volatile)

	// History of another cabin does not count
	ev = e.Evaluate(route, []entity.Offer{{OfferID: "a", Price: 10, Cabin: entity.CabinBusiness}}, history, make(seenSet), t0)
	assert.False(t, ev.Volatile)

	// Only the cheapest offer per cabin is compared
	ev = e.Evaluate(route, []entity.Offer{
		{OfferID: "a", Price: 120, Cabin: entity.CabinEconomy},
		{OfferID: "b", Price: 84, Cabin: entity.CabinEconomy},
	}, history, make(seenSet), t0)
	assert.True(t, ev.Volatile)
}
