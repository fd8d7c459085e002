package templates

import (
	"fmt"
	"strings"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/pkg/utils"
)

// DEAL_ALERT_TEMPLATE renders one emitted deal
const DEAL_ALERT_TEMPLATE = `✈️ DEAL FOUND!

%s
📅 %s
💺 %s
💵 %s (your limit %s)
🔖 Offer %s
%s`

// CabinLabel returns a readable cabin name
func CabinLabel(cabin entity.CabinClass) string {
	switch cabin {
	case entity.CabinEconomy:
		return "Economy"
	case entity.CabinPremiumEconomy:
		return "Premium economy"
	case entity.CabinBusiness:
		return "Business"
	case entity.CabinFirst:
		return "First"
	default:
		return string(cabin)
	}
}

// DealAlert formats the notification text for a deal
func DealAlert(deal entity.Deal) string {
	route := deal.Route
	offer := deal.Offer

	dates := offer.DepartureDate.Format(entity.DateLayout)
	if offer.ReturnDate != nil {
		dates = fmt.Sprintf("%s – %s", dates, offer.ReturnDate.Format(entity.DateLayout))
	}

	currency := offer.Currency
	if currency == "" {
		currency = route.Currency
	}

	return strings.TrimRight(fmt.Sprintf(DEAL_ALERT_TEMPLATE,
		route.Label(),
		dates,
		CabinLabel(offer.Cabin),
		utils.FormatPrice(offer.Price, currency),
		utils.FormatPrice(route.Threshold(offer.Cabin), route.Currency),
		offer.OfferID,
		offer.Summary,
	), "\n")
}

// RouteSummary renders one line per route for /list and confirmations
func RouteSummary(route *entity.Route) string {
	var b strings.Builder
	b.WriteString(route.Label())
	if route.IsRoundTrip() {
		fmt.Fprintf(&b, ", %d–%d days", route.MinDays, route.MaxDays)
	} else {
		b.WriteString(", one-way")
	}
	fmt.Fprintf(&b, ", next %d days", route.HorizonDays)
	for _, cabin := range route.Cabins() {
		fmt.Fprintf(&b, ", %s ≤ %s", CabinLabel(cabin), utils.FormatPrice(route.Thresholds[cabin], route.Currency))
	}
	if route.Schedule.Halted {
		b.WriteString(" (paused)")
	} else if route.Schedule.BurstActive {
		b.WriteString(" (burst)")
	}
	return b.String()
}

// RouteHalted tells the owner that polling stopped for a route
func RouteHalted(route *entity.Route) string {
	return fmt.Sprintf("⚠️ Fare search for %s was rejected by the provider and has been paused. Send /resume once the provider account is fixed.", route.Label())
}
