package templates

import (
	"fmt"

	"dealwatch-service/internal/domain/entity"
)

const (
	PromptTripType    = "Let's watch a new route. Is it one-way or round-trip? Reply 1 for one-way, 2 for round-trip."
	PromptOrigin      = "Where from? Send the 3-letter airport code, e.g. KTM."
	PromptDestination = "Where to? Send the 3-letter airport code, e.g. BKK."
	PromptMinDays     = "Shortest stay, in days?"
	PromptMaxDays     = "Longest stay, in days?"

	InvalidTripType = "Please reply 1 (one-way) or 2 (round-trip)."
	InvalidAirport  = "That doesn't look like an airport code. Send 3 letters, e.g. BKK."
	SameAirport     = "Destination must differ from the origin."
	InvalidDays     = "Please send a whole number of days, 1 or more."
	InvalidPrice    = "Please send a price as a number, e.g. 200."

	IntakeCancelled  = "Cancelled. Nothing was saved."
	NothingToCancel  = "There is nothing to cancel."
	RouteDuplicate   = "You are already watching that route, so nothing changed."
	RouteSaveFailed  = "Sorry, the route could not be saved right now. Please try /start again later."
	NoRoutes         = "You are not watching any routes yet. Send /start to add one."
	NoRoutesToResume = "None of your routes are paused."

	HelpText = `I watch flight prices and message you when they drop.

/start – watch a new route
/list – show your routes
/resume – restart paused routes
/cancel – abort the current form`
)

// suggested ceilings shown next to each cabin prompt
var thresholdHints = map[entity.CabinClass]float64{
	entity.CabinEconomy:        180,
	entity.CabinPremiumEconomy: 300,
	entity.CabinBusiness:       700,
	entity.CabinFirst:          1200,
}

// PromptMaxDaysAtLeast re-asks for the longest stay with its lower bound
func PromptMaxDaysAtLeast(min, horizon int) string {
	return fmt.Sprintf("Longest stay must be between %d and %d days.", min, horizon)
}

// PromptThreshold asks for the ceiling of one cabin
func PromptThreshold(cabin entity.CabinClass, currency string) string {
	if cabin == entity.CabinEconomy {
		return fmt.Sprintf("Alert me when %s is at or below how much (%s)? e.g. %.0f", CabinLabel(cabin), currency, thresholdHints[cabin])
	}
	return fmt.Sprintf("And for %s (%s)? e.g. %.0f, or reply skip to use the economy limit.", CabinLabel(cabin), currency, thresholdHints[cabin])
}

// RouteSaved confirms a completed intake
func RouteSaved(route *entity.Route) string {
	return "✅ Watching " + RouteSummary(route) + ". I'll message you when a fare drops below your limit."
}
