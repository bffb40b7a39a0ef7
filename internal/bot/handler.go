package bot

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"relaybot.app/relay/common/id"
	"relaybot.app/relay/common/logger"
	"relaybot.app/relay/internal/model"
	"relaybot.app/relay/internal/prompt"
	"relaybot.app/relay/internal/reply"
)

const (
	WaitingText = "⏳ Waiting for AI response..."
	ApologyText = "Sorry, I couldn’t get a response from Gemini AI."
)

// Messenger is the chat platform's outbound surface.
type Messenger interface {
	// Reply posts a new message answering to in its channel.
	Reply(ctx context.Context, to model.InboundMessage, content string) (model.MessageRef, error)
	// Edit replaces the content of a message the bot posted earlier.
	Edit(ctx context.Context, ref model.MessageRef, content string) error
}

// Generator produces reply text for a prompt.
type Generator interface {
	Generate(ctx context.Context, p prompt.Prompt) (string, error)
}

type Config struct {
	UnwrapJSON bool
}

// Handler turns a self-mention into a provisional reply that is later edited
// with the generated answer. Every call runs to a terminal Outcome.
type Handler struct {
	messenger Messenger
	generator Generator
	prompts   *prompt.Builder
	cfg       Config
}

func NewHandler(messenger Messenger, generator Generator, prompts *prompt.Builder, cfg Config) *Handler {
	return &Handler{
		messenger: messenger,
		generator: generator,
		prompts:   prompts,
		cfg:       cfg,
	}
}

func (h *Handler) Handle(ctx context.Context, msg model.InboundMessage) model.Outcome {
	// Bot authors, the bot itself included, never trigger a reply.
	if msg.AuthorIsBot || msg.FromSelf() {
		return model.OutcomeIgnored
	}
	if !msg.MentionsSelf {
		return model.OutcomeIgnored
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RequestID: logger.Ptr(id.New()),
		MessageID: logger.Ptr(msg.ID),
		ChannelID: logger.Ptr(msg.ChannelID),
		GuildID:   logger.Ptr(msg.GuildID),
		AuthorID:  logger.Ptr(msg.AuthorID),
		Component: "relay.bot.handler",
	})

	sc := logger.StartSpan(ctx, "bot.handle_mention", trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()

	outcome := h.handleMention(ctx, msg, sc)
	sc.SetOutcome(string(outcome))

	slog.InfoContext(ctx, "mention handled", "outcome", outcome)
	return outcome
}

func (h *Handler) handleMention(ctx context.Context, msg model.InboundMessage, sc *logger.SpanContext) model.Outcome {
	provisional, err := h.messenger.Reply(ctx, msg, WaitingText)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "failed to send provisional reply", "error", err)
		return model.OutcomeAborted
	}

	p := h.prompts.Build(msg.RawText, msg.SelfID)
	slog.DebugContext(ctx, "prompt built", "user_text", logger.Truncate(p.UserText, 200))

	text, err := h.generate(ctx, p)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "generation failed", "error", err)
		if _, sendErr := h.messenger.Reply(ctx, msg, ApologyText); sendErr != nil {
			slog.ErrorContext(ctx, "failed to send apology", "error", sendErr)
		}
		return model.OutcomeFailed
	}

	if h.cfg.UnwrapJSON {
		text = reply.UnwrapContent(text)
	}
	final := reply.Format(text)

	if err := h.messenger.Edit(ctx, provisional, final); err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "failed to edit provisional reply",
			"error", err,
			"reply_message_id", provisional.MessageID)
		return model.OutcomeDone
	}

	slog.InfoContext(ctx, "reply sent",
		"reply_message_id", provisional.MessageID,
		"reply", logger.Truncate(final, 200))

	return model.OutcomeDone
}

// generate converts a panic in the generator into an error so the user still
// gets the apology.
func (h *Handler) generate(ctx context.Context, p prompt.Prompt) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during generation: %v", r)
		}
	}()
	return h.generator.Generate(ctx, p)
}
