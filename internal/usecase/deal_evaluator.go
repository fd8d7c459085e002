package usecase

import (
	"time"

	"dealwatch-service/internal/domain/entity"
)

// AlertLedger remembers which offers were already notified
type AlertLedger interface {
	// MarkSeen records key and reports whether it was new
	MarkSeen(key entity.SeenAlertKey, at time.Time) bool
}

// Evaluation is the outcome of evaluating one route's fresh offers
type Evaluation struct {
	Deals      []entity.Deal
	NewAlerts  []*entity.SeenAlert
	Suppressed int
	Volatile   bool
	// MaxChange is the largest relative drop against history over all cabins
	MaxChange float64
}

// DealEvaluator applies thresholds, dedup and the volatility check
type DealEvaluator struct {
	volatilityThreshold float64
}

// NewDealEvaluator creates an evaluator flagging drops of at least threshold
func NewDealEvaluator(volatilityThreshold float64) *DealEvaluator {
	return &DealEvaluator{volatilityThreshold: volatilityThreshold}
}

// Evaluate decides which offers are alert-worthy and whether the route is volatile.
// Newly emitted offers are marked in ledger.
func (e *DealEvaluator) Evaluate(route *entity.Route, offers []entity.Offer, history entity.PriceHistory, ledger AlertLedger, now time.Time) Evaluation {
	var ev Evaluation

	cheapest := make(map[entity.CabinClass]float64)
	for _, offer := range offers {
		if p, ok := cheapest[offer.Cabin]; !ok || offer.Price < p {
			cheapest[offer.Cabin] = offer.Price
		}

		if offer.Price > route.Threshold(offer.Cabin) {
			continue
		}

		key := entity.SeenAlertKeyFor(route, offer)
		if !ledger.MarkSeen(key, now) {
			ev.Suppressed++
			continue
		}

		ev.Deals = append(ev.Deals, entity.Deal{
			RouteID: route.ID,
			ChatID:  route.ChatID,
			Route:   route,
			Offer:   offer,
		})
		ev.NewAlerts = append(ev.NewAlerts, &entity.SeenAlert{
			Key:     key,
			RouteID: route.ID,
			ChatID:  route.ChatID,
			SeenAt:  now,
		})
	}

	for cabin, observed := range cheapest {
		change, ok := e.Change(history, cabin, observed)
		if !ok {
			continue
		}
		if change > ev.MaxChange {
			ev.MaxChange = change
		}
		if change >= e.volatilityThreshold {
			ev.Volatile = true
		}
	}

	return ev
}

// Change returns the relative drop of observed against the historical average of cabin
func (e *DealEvaluator) Change(history entity.PriceHistory, cabin entity.CabinClass, observed float64) (float64, bool) {
	avg, ok := history.Average(cabin)
	if !ok || avg <= 0 {
		return 0, false
	}
	return (avg - observed) / avg, true
}
