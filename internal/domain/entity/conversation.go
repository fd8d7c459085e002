package entity

import "time"

// IntakeStep is the current state of the route intake form
type IntakeStep int

const (
	StepAwaitTripType IntakeStep = iota
	StepAwaitOrigin
	StepAwaitDestination
	StepAwaitMinDays
	StepAwaitMaxDays
	StepAwaitThreshold
	StepComplete
)

func (s IntakeStep) String() string {
	switch s {
	case StepAwaitTripType:
		return "await_trip_type"
	case StepAwaitOrigin:
		return "await_origin"
	case StepAwaitDestination:
		return "await_destination"
	case StepAwaitMinDays:
		return "await_min_days"
	case StepAwaitMaxDays:
		return "await_max_days"
	case StepAwaitThreshold:
		return "await_threshold"
	case StepComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Conversation is one chat's in-progress intake form
type Conversation struct {
	ChatID       string
	Step         IntakeStep
	Cabin        CabinClass // the cabin asked for while Step is StepAwaitThreshold
	Draft        Route
	StartedAt    time.Time
	LastActiveAt time.Time // refreshed on every answer; idle forms expire from it
}

// InboundMessage is one decoded message from the chat transport
type InboundMessage struct {
	ChatID     string
	UserID     string
	Text       string
	ReceivedAt time.Time
}
