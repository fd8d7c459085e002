package entity

import (
	"math"
	"time"
)

// DateLayout is the calendar date format used on provider and cache keys
const DateLayout = "2006-01-02"

// FareQuery is one sampled (departure, return, cabin) search for a route
type FareQuery struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    *time.Time
	Cabin         CabinClass
	Currency      string
}

// PriceKey returns the cache key of the query
func (q FareQuery) PriceKey() PriceKey {
	key := PriceKey{
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureDate: q.DepartureDate.Format(DateLayout),
		Cabin:         q.Cabin,
	}
	if q.ReturnDate != nil {
		key.ReturnDate = q.ReturnDate.Format(DateLayout)
	}
	return key
}

// Offer is one fare returned by a provider
type Offer struct {
	OfferID       string     `json:"offerId"`
	Price         float64    `json:"price"`
	Currency      string     `json:"currency"`
	Cabin         CabinClass `json:"cabin"`
	Summary       string     `json:"summary"`
	DepartureDate time.Time  `json:"departureDate"`
	ReturnDate    *time.Time `json:"returnDate,omitempty"`
	DeepLink      string     `json:"deepLink,omitempty"`
}

// MinorUnits converts a price to integer minor units (cents)
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// Deal is an alert-worthy offer for a route
type Deal struct {
	RouteID string
	ChatID  string
	Route   *Route
	Offer   Offer
}
