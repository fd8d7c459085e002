package usecase

import (
	"context"
	"fmt"
	"strings"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/templates"
)

// commandName returns the lower-cased leading "/command" of text without any "@bot" suffix
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name := strings.ToLower(fields[0])
	if at := strings.Index(name, "@"); at > 0 {
		name = name[:at]
	}
	return name
}

// IsCommand reports whether text starts with a slash command
func IsCommand(text string) bool {
	return commandName(text) != ""
}

// StartCommand begins the intake form
type StartCommand struct {
	intake *Intake
}

func NewStartCommand(intake *Intake) *StartCommand {
	return &StartCommand{intake: intake}
}

func (c *StartCommand) CanHandle(text string) bool {
	name := commandName(text)
	return name == "/start" || name == "/new"
}

func (c *StartCommand) Process(_ context.Context, msg entity.InboundMessage) (string, error) {
	return c.intake.Start(msg.ChatID), nil
}

// CancelCommand aborts the intake form
type CancelCommand struct {
	intake *Intake
}

func NewCancelCommand(intake *Intake) *CancelCommand {
	return &CancelCommand{intake: intake}
}

func (c *CancelCommand) CanHandle(text string) bool {
	return commandName(text) == "/cancel"
}

func (c *CancelCommand) Process(_ context.Context, msg entity.InboundMessage) (string, error) {
	if c.intake.Cancel(msg.ChatID) {
		return templates.IntakeCancelled, nil
	}
	return templates.NothingToCancel, nil
}

// ListCommand shows the chat's routes
type ListCommand struct {
	registry *RouteRegistry
}

func NewListCommand(registry *RouteRegistry) *ListCommand {
	return &ListCommand{registry: registry}
}

func (c *ListCommand) CanHandle(text string) bool {
	name := commandName(text)
	return name == "/list" || name == "/routes" || name == "/status"
}

func (c *ListCommand) Process(_ context.Context, msg entity.InboundMessage) (string, error) {
	routes := c.registry.ListRoutes(msg.ChatID)
	if len(routes) == 0 {
		return templates.NoRoutes, nil
	}
	var b strings.Builder
	b.WriteString("Your routes:\n")
	for n, route := range routes {
		fmt.Fprintf(&b, "%d. %s\n", n+1, templates.RouteSummary(route))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// ResumeCommand restarts routes halted after a provider rejection
type ResumeCommand struct {
	registry *RouteRegistry
}

func NewResumeCommand(registry *RouteRegistry) *ResumeCommand {
	return &ResumeCommand{registry: registry}
}

func (c *ResumeCommand) CanHandle(text string) bool {
	return commandName(text) == "/resume"
}

func (c *ResumeCommand) Process(ctx context.Context, msg entity.InboundMessage) (string, error) {
	n, err := c.registry.ResumeRoutes(ctx, msg.ChatID)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return templates.NoRoutesToResume, nil
	}
	return fmt.Sprintf("Resumed %d route(s).", n), nil
}

// HelpCommand lists the commands
type HelpCommand struct{}

func (HelpCommand) CanHandle(text string) bool {
	return commandName(text) == "/help"
}

func (HelpCommand) Process(context.Context, entity.InboundMessage) (string, error) {
	return templates.HelpText, nil
}
