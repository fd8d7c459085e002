package entity

import "time"

// SeenAlertKey identifies a concrete offer already notified to a chat
type SeenAlertKey struct {
	ChatID      string     `json:"chatId" bson:"chatId"`
	Origin      string     `json:"origin" bson:"origin"`
	Destination string     `json:"destination" bson:"destination"`
	Cabin       CabinClass `json:"cabin" bson:"cabin"`
	PriceMinor  int64      `json:"priceMinor" bson:"priceMinor"`
	OfferID     string     `json:"offerId" bson:"offerId"`
}

// SeenAlertKeyFor builds the dedup key of an offer on a route
func SeenAlertKeyFor(route *Route, offer Offer) SeenAlertKey {
	return SeenAlertKey{
		ChatID:      route.ChatID,
		Origin:      route.Origin,
		Destination: route.Destination,
		Cabin:       offer.Cabin,
		PriceMinor:  MinorUnits(offer.Price),
		OfferID:     offer.OfferID,
	}
}

// SeenAlert is a persisted record of a notified offer
type SeenAlert struct {
	Key     SeenAlertKey `json:"key" bson:"key"`
	RouteID string       `json:"routeId" bson:"routeId"`
	ChatID  string       `json:"chatId" bson:"chatId"`
	SeenAt  time.Time    `json:"seenAt" bson:"seenAt"`
}

// UsageKey identifies one identity's fare-search budget for a UTC day
type UsageKey struct {
	Identity string
	Day      string
}

// UsageKeyFor returns the usage key of identity on the UTC day of t
func UsageKeyFor(identity string, t time.Time) UsageKey {
	return UsageKey{Identity: identity, Day: t.UTC().Format(DateLayout)}
}
