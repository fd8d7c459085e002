// internal/domain/entity/route.go
package entity

import (
	"fmt"
	"math"
	"time"
)

// TripType distinguishes one-way from round-trip routes
type TripType string

const (
	TripOneWay    TripType = "one_way"
	TripRoundTrip TripType = "round_trip"
)

// CabinClass is the cabin a fare is quoted for
type CabinClass string

const (
	CabinEconomy        CabinClass = "ECONOMY"
	CabinPremiumEconomy CabinClass = "PREMIUM_ECONOMY"
	CabinBusiness       CabinClass = "BUSINESS"
	CabinFirst          CabinClass = "FIRST"
)

// CabinClasses lists every cabin in the order they are asked for and searched
var CabinClasses = []CabinClass{CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst}

// Schedule is the per-route polling state owned by the scheduler
type Schedule struct {
	LastCheckedAt  time.Time     `json:"lastCheckedAt" bson:"lastCheckedAt"`
	Interval       time.Duration `json:"interval" bson:"interval"`
	BurstActive    bool          `json:"burstActive" bson:"burstActive"`
	BurstStartedAt time.Time     `json:"burstStartedAt" bson:"burstStartedAt"`
	Halted         bool          `json:"halted" bson:"halted"`
	HaltReason     string        `json:"haltReason,omitempty" bson:"haltReason,omitempty"`
}

// Route is a chat's subscription to an origin/destination fare watch
type Route struct {
	ID          string                 `json:"id" bson:"_id"`
	ChatID      string                 `json:"chatId" bson:"chatId"`
	Origin      string                 `json:"origin" bson:"origin"`
	Destination string                 `json:"destination" bson:"destination"`
	TripType    TripType               `json:"tripType" bson:"tripType"`
	MinDays     int                    `json:"minDays" bson:"minDays"`
	MaxDays     int                    `json:"maxDays" bson:"maxDays"`
	HorizonDays int                    `json:"horizonDays" bson:"horizonDays"`
	Currency    string                 `json:"currency" bson:"currency"`
	Thresholds  map[CabinClass]float64 `json:"thresholds" bson:"thresholds"`
	Schedule    Schedule               `json:"schedule" bson:"schedule"`
	CreatedAt   time.Time              `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt" bson:"updatedAt"`
}

// RouteKey is the uniqueness key of a route within the registry
type RouteKey struct {
	ChatID      string
	Origin      string
	Destination string
	TripType    TripType
	MinDays     int
	MaxDays     int
}

// Key returns the uniqueness key of the route
func (r *Route) Key() RouteKey {
	return RouteKey{
		ChatID:      r.ChatID,
		Origin:      r.Origin,
		Destination: r.Destination,
		TripType:    r.TripType,
		MinDays:     r.MinDays,
		MaxDays:     r.MaxDays,
	}
}

// Threshold returns the price ceiling for cabin, falling back to economy
func (r *Route) Threshold(cabin CabinClass) float64 {
	if v, ok := r.Thresholds[cabin]; ok && v > 0 {
		return v
	}
	return r.Thresholds[CabinEconomy]
}

// Cabins returns the cabins with an explicit threshold, in CabinClasses order
func (r *Route) Cabins() []CabinClass {
	cabins := make([]CabinClass, 0, len(r.Thresholds))
	for _, c := range CabinClasses {
		if v, ok := r.Thresholds[c]; ok && v > 0 {
			cabins = append(cabins, c)
		}
	}
	return cabins
}

// IsRoundTrip reports whether the route has a return leg
func (r *Route) IsRoundTrip() bool {
	return r.TripType == TripRoundTrip
}

// Label renders the route for humans, e.g. "KTM → BKK → KTM"
func (r *Route) Label() string {
	if r.IsRoundTrip() {
		return fmt.Sprintf("%s → %s → %s", r.Origin, r.Destination, r.Origin)
	}
	return fmt.Sprintf("%s → %s", r.Origin, r.Destination)
}

// Clone returns a deep copy safe to hand out of the shared state
func (r *Route) Clone() *Route {
	c := *r
	c.Thresholds = make(map[CabinClass]float64, len(r.Thresholds))
	for k, v := range r.Thresholds {
		c.Thresholds[k] = v
	}
	return &c
}

// Validate checks the fields a route must carry before it is registered
func (r *Route) Validate() error {
	if r.ChatID == "" {
		return &ValidationError{Field: "chatId", Reason: "is required"}
	}
	if len(r.Origin) != 3 {
		return &ValidationError{Field: "origin", Reason: "must be a 3-letter airport code"}
	}
	if len(r.Destination) != 3 {
		return &ValidationError{Field: "destination", Reason: "must be a 3-letter airport code"}
	}
	if r.Origin == r.Destination {
		return &ValidationError{Field: "destination", Reason: "must differ from origin"}
	}
	switch r.TripType {
	case TripOneWay:
		if r.MinDays != 0 || r.MaxDays != 0 {
			return &ValidationError{Field: "minDays", Reason: "must be unset for one-way trips"}
		}
	case TripRoundTrip:
		if r.MinDays < 1 {
			return &ValidationError{Field: "minDays", Reason: "must be at least 1"}
		}
		if r.MaxDays < r.MinDays {
			return &ValidationError{Field: "maxDays", Reason: "must not be less than minDays"}
		}
	default:
		return &ValidationError{Field: "tripType", Reason: fmt.Sprintf("unknown trip type %q", r.TripType)}
	}
	if r.HorizonDays < 1 {
		return &ValidationError{Field: "horizonDays", Reason: "must be at least 1"}
	}
	if _, ok := r.Thresholds[CabinEconomy]; !ok {
		return &ValidationError{Field: "thresholds", Reason: "economy threshold is required"}
	}
	for cabin, v := range r.Thresholds {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return &ValidationError{Field: "thresholds", Reason: fmt.Sprintf("%s threshold must be a positive amount", cabin)}
		}
	}
	return nil
}
