package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"relaybot.app/relay/internal/model"
)

// API is the part of *discordgo.Session the messenger needs.
type API interface {
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Messenger sends and edits channel messages on behalf of the mention handler.
type Messenger struct {
	api API
}

func NewMessenger(api API) *Messenger {
	return &Messenger{api: api}
}

func (m *Messenger) Reply(ctx context.Context, to model.InboundMessage, content string) (model.MessageRef, error) {
	ref := &discordgo.MessageReference{
		MessageID: to.ID,
		ChannelID: to.ChannelID,
		GuildID:   to.GuildID,
	}

	sent, err := m.api.ChannelMessageSendReply(to.ChannelID, content, ref, discordgo.WithContext(ctx))
	if err != nil {
		return model.MessageRef{}, fmt.Errorf("sending reply in channel %s: %w", to.ChannelID, err)
	}

	channelID := sent.ChannelID
	if channelID == "" {
		channelID = to.ChannelID
	}
	return model.MessageRef{ChannelID: channelID, MessageID: sent.ID}, nil
}

func (m *Messenger) Edit(ctx context.Context, ref model.MessageRef, content string) error {
	if _, err := m.api.ChannelMessageEdit(ref.ChannelID, ref.MessageID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("editing message %s: %w", ref.MessageID, err)
	}
	return nil
}
