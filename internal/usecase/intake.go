package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/pkg/logger"
	"dealwatch-service/pkg/utils"
	"dealwatch-service/templates"
)

// RouteAdder is the registry operation the intake form commits to
type RouteAdder interface {
	AddRoute(ctx context.Context, candidate *entity.Route) (string, error)
}

// IntakeConfig holds defaults applied to routes captured by the form
type IntakeConfig struct {
	HorizonDays int
	Currency    string
	// TTL discards conversations with no answer for longer than this
	TTL time.Duration
}

// Intake is the linear conversational form that captures a new route.
// Conversations are keyed per chat so concurrent users never interfere.
type Intake struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	routes        RouteAdder
	cfg           IntakeConfig
	logger        logger.Logger
	now           func() time.Time
}

// NewIntake creates an intake form committing to routes
func NewIntake(routes RouteAdder, cfg IntakeConfig, logger logger.Logger) *Intake {
	return &Intake{
		conversations: make(map[string]*entity.Conversation),
		routes:        routes,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// Start begins (or restarts) the form for chatID and returns the first prompt
func (i *Intake) Start(chatID string) string {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	i.conversations[chatID] = &entity.Conversation{
		ChatID:       chatID,
		Step:         entity.StepAwaitTripType,
		StartedAt:    now,
		LastActiveAt: now,
		Draft: entity.Route{
			ChatID:      chatID,
			HorizonDays: i.cfg.HorizonDays,
			Currency:    i.cfg.Currency,
			Thresholds:  make(map[entity.CabinClass]float64),
		},
	}
	return templates.PromptTripType
}

// Cancel discards the conversation of chatID and reports whether one existed
func (i *Intake) Cancel(chatID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.active(chatID); !ok {
		return false
	}
	delete(i.conversations, chatID)
	return true
}

// Active reports whether chatID has a form in progress
func (i *Intake) Active(chatID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, ok := i.active(chatID)
	return ok
}

// Step returns the current step of chatID's form
func (i *Intake) Step(chatID string) (entity.IntakeStep, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	conv, ok := i.active(chatID)
	if !ok {
		return 0, false
	}
	return conv.Step, true
}

// active returns the live conversation of chatID, expiring idle ones. Caller holds mu.
func (i *Intake) active(chatID string) (*entity.Conversation, bool) {
	conv, ok := i.conversations[chatID]
	if !ok {
		return nil, false
	}
	if i.cfg.TTL > 0 && i.now().Sub(conv.LastActiveAt) > i.cfg.TTL {
		delete(i.conversations, chatID)
		return nil, false
	}
	return conv, true
}

// Handle feeds one user message to chatID's form and returns the reply.
// It reports false when chatID has no form in progress.
func (i *Intake) Handle(ctx context.Context, chatID, text string) (string, bool) {
	i.mu.Lock()
	conv, ok := i.active(chatID)
	if !ok {
		i.mu.Unlock()
		return "", false
	}

	conv.LastActiveAt = i.now()
	reply := i.advance(conv, strings.TrimSpace(text))
	if conv.Step != entity.StepComplete {
		i.mu.Unlock()
		return reply, true
	}

	// The form is finished either way; the registry call runs unlocked.
	delete(i.conversations, chatID)
	draft := conv.Draft.Clone()
	i.mu.Unlock()

	return i.commit(ctx, draft), true
}

// advance applies input to the current step and returns the next prompt.
// Invalid input leaves the step unchanged.
func (i *Intake) advance(conv *entity.Conversation, input string) string {
	d := &conv.Draft

	switch conv.Step {
	case entity.StepAwaitTripType:
		tt, ok := parseTripType(input)
		if !ok {
			return templates.InvalidTripType
		}
		d.TripType = tt
		conv.Step = entity.StepAwaitOrigin
		return templates.PromptOrigin

	case entity.StepAwaitOrigin:
		code := utils.NormalizeAirportCode(input)
		if !utils.IsIATACode(code) {
			return templates.InvalidAirport
		}
		d.Origin = code
		conv.Step = entity.StepAwaitDestination
		return templates.PromptDestination

	case entity.StepAwaitDestination:
		code := utils.NormalizeAirportCode(input)
		if !utils.IsIATACode(code) {
			return templates.InvalidAirport
		}
		if code == d.Origin {
			return templates.SameAirport
		}
		d.Destination = code
		if d.TripType == entity.TripOneWay {
			return i.askThreshold(conv, 0)
		}
		conv.Step = entity.StepAwaitMinDays
		return templates.PromptMinDays

	case entity.StepAwaitMinDays:
		n, ok := utils.ParseDays(input)
		if !ok || n > d.HorizonDays {
			return templates.InvalidDays
		}
		d.MinDays = n
		conv.Step = entity.StepAwaitMaxDays
		return templates.PromptMaxDays

	case entity.StepAwaitMaxDays:
		n, ok := utils.ParseDays(input)
		if !ok {
			return templates.InvalidDays
		}
		if n < d.MinDays || n > d.HorizonDays {
			return templates.PromptMaxDaysAtLeast(d.MinDays, d.HorizonDays)
		}
		d.MaxDays = n
		return i.askThreshold(conv, 0)

	case entity.StepAwaitThreshold:
		idx := cabinIndex(conv.Cabin)
		if conv.Cabin != entity.CabinEconomy && isSkip(input) {
			return i.askThreshold(conv, idx+1)
		}
		price, ok := utils.ParsePrice(input)
		if !ok {
			return templates.InvalidPrice
		}
		d.Thresholds[conv.Cabin] = price
		return i.askThreshold(conv, idx+1)
	}

	return templates.HelpText
}

// askThreshold moves to the threshold step for the cabin at idx, or completes
func (i *Intake) askThreshold(conv *entity.Conversation, idx int) string {
	if idx >= len(entity.CabinClasses) {
		conv.Step = entity.StepComplete
		return ""
	}
	conv.Step = entity.StepAwaitThreshold
	conv.Cabin = entity.CabinClasses[idx]
	return templates.PromptThreshold(conv.Cabin, conv.Draft.Currency)
}

// commit registers the completed draft and returns the outcome reply
func (i *Intake) commit(ctx context.Context, draft *entity.Route) string {
	id, err := i.routes.AddRoute(ctx, draft)
	switch {
	case err == nil:
		draft.ID = id
		return templates.RouteSaved(draft)
	case errors.Is(err, entity.ErrDuplicateRoute):
		i.logger.Info("Duplicate route rejected", "chatID", draft.ChatID, "origin", draft.Origin, "destination", draft.Destination)
		return templates.RouteDuplicate
	default:
		i.logger.Error("Failed to add route from intake", "chatID", draft.ChatID, "error", err)
		return templates.RouteSaveFailed
	}
}

func parseTripType(input string) (entity.TripType, bool) {
	switch strings.ToLower(strings.ReplaceAll(input, " ", "")) {
	case "1", "one", "oneway", "one-way", "one_way":
		return entity.TripOneWay, true
	case "2", "round", "return", "roundtrip", "round-trip", "round_trip":
		return entity.TripRoundTrip, true
	}
	return "", false
}

func isSkip(input string) bool {
	switch strings.ToLower(input) {
	case "skip", "-", "no", "none":
		return true
	}
	return false
}

func cabinIndex(cabin entity.CabinClass) int {
	for idx, c := range entity.CabinClasses {
		if c == cabin {
			return idx
		}
	}
	return len(entity.CabinClasses)
}
