package entity

import "time"

// PriceKey identifies one sampled (route, date-pair, cabin) combination
type PriceKey struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string // empty for one-way
	Cabin         CabinClass
}

// StayDays returns the nights between departure and return, false for one-way keys
func (k PriceKey) StayDays() (int, bool) {
	if k.ReturnDate == "" {
		return 0, false
	}
	dep, err := time.Parse(DateLayout, k.DepartureDate)
	if err != nil {
		return 0, false
	}
	ret, err := time.Parse(DateLayout, k.ReturnDate)
	if err != nil {
		return 0, false
	}
	return int(ret.Sub(dep).Hours() / 24), true
}

// Matches reports whether k is a date pair route would sample: one-way keys
// for one-way routes, and the route's shortest or longest stay for round trips
func (k PriceKey) Matches(route *Route) bool {
	if k.Origin != route.Origin || k.Destination != route.Destination {
		return false
	}
	if !route.IsRoundTrip() {
		return k.ReturnDate == ""
	}
	stay, ok := k.StayDays()
	return ok && (stay == route.MinDays || stay == route.MaxDays)
}

// PriceCacheEntry is the last observation for a PriceKey
type PriceCacheEntry struct {
	Key        PriceKey
	Price      float64
	Offer      *Offer // cheapest offer of the observation, nil when Empty
	Empty      bool   // the provider answered with no offers
	CycleAt    time.Time
	ObservedAt time.Time
}

// PriceHistory holds earlier cached prices per cabin for one route shape
type PriceHistory map[CabinClass][]float64

// Average returns the mean historical price for cabin and whether any exists
func (h PriceHistory) Average(cabin CabinClass) (float64, bool) {
	prices := h[cabin]
	if len(prices) == 0 {
		return 0, false
	}
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices)), true
}
