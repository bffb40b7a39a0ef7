package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"relaybot.app/relay/common/llm"
	"relaybot.app/relay/common/logger"
	"relaybot.app/relay/internal/model"
	"relaybot.app/relay/internal/prompt"
)

// ErrExhausted is returned when both tiers have used up their attempts.
// The returned error also wraps the secondary model's last error.
var ErrExhausted = errors.New("all models exhausted")

// Orchestrator tries the primary model with its own retry budget and, only if
// that is exhausted, the secondary model with an independent budget.
type Orchestrator struct {
	primary   llm.Client
	secondary llm.Client
	policy    RetryPolicy
}

func NewOrchestrator(primary, secondary llm.Client, policy RetryPolicy) *Orchestrator {
	return &Orchestrator{
		primary:   primary,
		secondary: secondary,
		policy:    policy,
	}
}

// Models returns the fallback order.
func (o *Orchestrator) Models() []model.ModelDescriptor {
	return []model.ModelDescriptor{
		{Name: o.primary.Model(), Tier: model.TierPrimary},
		{Name: o.secondary.Model(), Tier: model.TierSecondary},
	}
}

// Generate returns the first successful text, primary then secondary.
func (o *Orchestrator) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	text := p.String()

	primaryCtx := logger.WithLogFields(ctx, logger.LogFields{Model: logger.Ptr(o.primary.Model())})
	out, primaryErr := WithRetry(primaryCtx, o.primary, text, o.policy)
	if primaryErr == nil {
		return out, nil
	}

	slog.WarnContext(primaryCtx, "primary model exhausted, falling back",
		"secondary_model", o.secondary.Model(),
		"error", primaryErr)

	secondaryCtx := logger.WithLogFields(ctx, logger.LogFields{Model: logger.Ptr(o.secondary.Model())})
	out, secondaryErr := WithRetry(secondaryCtx, o.secondary, text, o.policy)
	if secondaryErr == nil {
		slog.InfoContext(secondaryCtx, "secondary model succeeded after primary exhaustion")
		return out, nil
	}

	slog.ErrorContext(secondaryCtx, "secondary model exhausted",
		"primary_error", primaryErr,
		"error", secondaryErr)

	return "", fmt.Errorf("%w: %s: %w", ErrExhausted, o.secondary.Model(), secondaryErr)
}
