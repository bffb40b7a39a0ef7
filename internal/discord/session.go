package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"relaybot.app/relay/internal/model"
)

const submitTimeout = 5 * time.Second

// Submitter accepts converted inbound messages for dispatch.
type Submitter interface {
	Submit(ctx context.Context, msg model.InboundMessage) error
}

// Bot owns the gateway session and forwards self-mentions to a Submitter.
type Bot struct {
	session   *discordgo.Session
	submitter Submitter
}

// NewSession creates a gateway session with the intents needed to read
// mentions and their content.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return session, nil
}

// New registers the bot's event handlers on session.
func New(session *discordgo.Session, submitter Submitter) *Bot {
	b := &Bot{
		session:   session,
		submitter: submitter,
	}
	session.AddHandler(b.HandleReady)
	session.AddHandler(b.HandleMessageCreate)
	return b
}

// Session exposes the underlying session for outbound REST calls.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) HandleReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		slog.Info("discord gateway ready")
		return
	}
	slog.Info("discord gateway ready",
		"tag", r.User.String(),
		"bot_id", r.User.ID,
		"guilds", len(r.Guilds))
}

func (b *Bot) HandleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}

	msg := ToInbound(m.Message, selfID(s))

	// Cheap pre-filter; the mention handler applies the same rules again.
	if msg.AuthorIsBot || msg.FromSelf() || !msg.MentionsSelf {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	if err := b.submitter.Submit(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to submit mention",
			"error", err,
			"message_id", msg.ID,
			"channel_id", msg.ChannelID)
	}
}

// ToInbound converts a gateway message into the platform-neutral form.
func ToInbound(m *discordgo.Message, self string) model.InboundMessage {
	msg := model.InboundMessage{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		RawText:   m.Content,
		SelfID:    self,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorIsBot = m.Author.Bot
	}
	if self == "" {
		return msg
	}
	for _, u := range m.Mentions {
		if u != nil && u.ID == self {
			msg.MentionsSelf = true
			break
		}
	}
	return msg
}

func selfID(s *discordgo.Session) string {
	if s == nil || s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.ID
}
