package usecase

import (
	"testing"
	"time"

	"dealwatch-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceCacheLookupIsPerCycle(t *testing.T) {
	c := NewPriceCache(24 * time.Hour)
	key := entity.PriceKey{Origin: "KTM", Destination: "BKK", DepartureDate: "2026-03-08", Cabin: entity.CabinEconomy}

	c.Record(key, []entity.Offer{{OfferID: "a", Price: 120}, {OfferID: "b", Price: 95}}, t0, t0)

	e, ok := c.Lookup(key, t0)
	require.True(t, ok)
	assert.Equal(t, 95.0, e.Price)
	assert.Equal(t, "b", e.Offer.OfferID)

	_, ok = c.Lookup(key, t0.Add(30*time.Second))
	assert.False(t, ok)
}

func TestPriceCacheHistoryExcludesCurrentCycle(t *testing.T) {
	c := NewPriceCache(24 * time.Hour)
	k1 := entity.PriceKey{Origin: "KTM", Destination: "BKK", DepartureDate: "2026-03-08", Cabin: entity.CabinEconomy}
	k2 := entity.PriceKey{Origin: "KTM", Destination: "BKK", DepartureDate: "2026-03-15", Cabin: entity.CabinEconomy}
	k3 := entity.PriceKey{Origin: "KTM", Destination: "DEL", DepartureDate: "2026-03-08", Cabin: entity.CabinEconomy}
	k4 := entity.PriceKey{Origin: "KTM", Destination: "BKK", DepartureDate: "2026-03-22", Cabin: entity.CabinEconomy}

	c.Record(k1, []entity.Offer{{Price: 100}}, t0, t0)
	c.Record(k3, []entity.Offer{{Price: 50}}, t0, t0)
	c.Record(k4, nil, t0, t0)
	cycle := t0.Add(30 * time.Minute)
	c.Record(k2, []entity.Offer{{Price: 10}}, cycle, cycle)

	history := c.History(oneWayRoute("1", 200), cycle)
	assert.Equal(t, []float64{100}, history[entity.CabinEconomy])

	avg, ok := history.Average(entity.CabinEconomy)
	require.True(t, ok)
	assert.Equal(t, 100.0, avg)
}

func TestPriceCacheHistorySeparatesTripShapes(t *testing.T) {
	c := NewPriceCache(24 * time.Hour)
	oneWay := entity.PriceKey{Origin: "KTM", Destination: "BKK", DepartureDate: "2026-03-08", Cabin: entity.CabinEconomy}
	week := entity.PriceKey{Origin: "KTM", Destination: "BKK", DepartureDate: "2026-03-08", ReturnDate: "2026-03-15", Cabin: entity.CabinEconomy}
	fortnight := entity.PriceKey{Origin: "KTM", Destination: "BKK", DepartureDate: "2026-03-08", ReturnDate: "2026-03-22", Cabin: entity.CabinEconomy}

	c.Record(oneWay, []entity.Offer{{Price: 100}}, t0, t0)
	c.Record(week, []entity.Offer{{Price: 200}}, t0, t0)
	c.Record(fortnight, []entity.Offer{{Price: 260}}, t0, t0)
	cycle := t0.Add(30 * time.Minute)

	assert.Equal(t, []float64{100}, c.History(oneWayRoute("1", 150), cycle)[entity.CabinEconomy])

	roundTrip := roundTripRoute("2", 300, 7, 7, 120)
	assert.Equal(t, []float64{200}, c.History(roundTrip, cycle)[entity.CabinEconomy])

	roundTrip.MaxDays = 14
	assert.ElementsMatch(t, []float64{200, 260}, c.History(roundTrip, cycle)[entity.CabinEconomy])
}

func TestPriceCachePrune(t *testing.T) {
	c := NewPriceCache(time.Hour)
	key := entity.PriceKey{Origin: "KTM", Destination: "BKK", DepartureDate: "2026-03-08", Cabin: entity.CabinEconomy}
	c.Record(key, nil, t0, t0)

	assert.Equal(t, 0, c.Prune(t0.Add(time.Hour)))
	assert.Equal(t, 1, c.Prune(t0.Add(time.Hour+time.Second)))
	assert.Equal(t, 0, c.Len())
}
