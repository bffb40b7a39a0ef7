package discord_test

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"relaybot.app/relay/internal/discord"
	"relaybot.app/relay/internal/model"
)

const botID = "BOTID"

func gatewayMessage(authorID string, authorIsBot bool, mentions ...string) *discordgo.Message {
	m := &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		Content:   "<@BOTID> hello",
		Author:    &discordgo.User{ID: authorID, Bot: authorIsBot},
	}
	for _, id := range mentions {
		m.Mentions = append(m.Mentions, &discordgo.User{ID: id})
	}
	return m
}

func sessionAs(id string) *discordgo.Session {
	s := &discordgo.Session{State: discordgo.NewState()}
	s.State.User = &discordgo.User{ID: id}
	return s
}

var _ = Describe("ToInbound", func() {
	It("copies identifiers and detects the self-mention", func() {
		msg := discord.ToInbound(gatewayMessage("u1", false, "someone", botID), botID)

		Expect(msg).To(Equal(model.InboundMessage{
			ID:           "m1",
			ChannelID:    "c1",
			GuildID:      "g1",
			AuthorID:     "u1",
			RawText:      "<@BOTID> hello",
			MentionsSelf: true,
			SelfID:       botID,
		}))
	})

	It("does not flag messages mentioning others", func() {
		msg := discord.ToInbound(gatewayMessage("u1", false, "someone"), botID)
		Expect(msg.MentionsSelf).To(BeFalse())
	})

	It("tolerates a missing author and unknown self", func() {
		m := gatewayMessage("u1", false, botID)
		m.Author = nil

		msg := discord.ToInbound(m, "")
		Expect(msg.AuthorID).To(BeEmpty())
		Expect(msg.MentionsSelf).To(BeFalse())
	})
})

var _ = Describe("Bot.HandleMessageCreate", func() {
	var (
		submitter *mockSubmitter
		bot       *discord.Bot
	)

	BeforeEach(func() {
		submitter = &mockSubmitter{}
		session, err := discord.NewSession("test-token")
		Expect(err).NotTo(HaveOccurred())
		bot = discord.New(session, submitter)
	})

	It("submits self-mentions from users", func() {
		bot.HandleMessageCreate(sessionAs(botID), &discordgo.MessageCreate{Message: gatewayMessage("u1", false, botID)})

		Expect(submitter.Submitted()).To(HaveLen(1))
		Expect(submitter.Submitted()[0].SelfID).To(Equal(botID))
	})

	It("drops the bot's own messages", func() {
		bot.HandleMessageCreate(sessionAs(botID), &discordgo.MessageCreate{Message: gatewayMessage(botID, true, botID)})
		Expect(submitter.Submitted()).To(BeEmpty())
	})

	It("drops other bots and unmentioned messages", func() {
		bot.HandleMessageCreate(sessionAs(botID), &discordgo.MessageCreate{Message: gatewayMessage("other-bot", true, botID)})
		bot.HandleMessageCreate(sessionAs(botID), &discordgo.MessageCreate{Message: gatewayMessage("u1", false)})
		Expect(submitter.Submitted()).To(BeEmpty())
	})

	It("swallows submit errors", func() {
		submitter.submitFn = func(_ context.Context, _ model.InboundMessage) error {
			return errors.New("worker stopped")
		}

		Expect(func() {
			bot.HandleMessageCreate(sessionAs(botID), &discordgo.MessageCreate{Message: gatewayMessage("u1", false, botID)})
		}).NotTo(Panic())
	})

	It("configures the gateway intents", func() {
		intents := bot.Session().Identify.Intents
		Expect(intents & discordgo.IntentsGuildMessages).NotTo(BeZero())
		Expect(intents & discordgo.IntentsMessageContent).NotTo(BeZero())
		Expect(intents & discordgo.IntentsGuilds).NotTo(BeZero())
	})
})

var _ = Describe("Messenger", func() {
	var (
		ctx       context.Context
		api       *mockAPI
		messenger *discord.Messenger
		inbound   model.InboundMessage
	)

	BeforeEach(func() {
		ctx = context.Background()
		api = &mockAPI{}
		messenger = discord.NewMessenger(api)
		inbound = model.InboundMessage{ID: "m1", ChannelID: "c1", GuildID: "g1"}
	})

	It("replies with a reference to the triggering message", func() {
		var gotRef *discordgo.MessageReference
		api.sendReplyFn = func(channelID, content string, ref *discordgo.MessageReference) (*discordgo.Message, error) {
			gotRef = ref
			return &discordgo.Message{ID: "r1", ChannelID: channelID}, nil
		}

		ref, err := messenger.Reply(ctx, inbound, "⏳ Waiting for AI response...")
		Expect(err).NotTo(HaveOccurred())
		Expect(ref).To(Equal(model.MessageRef{ChannelID: "c1", MessageID: "r1"}))
		Expect(gotRef.MessageID).To(Equal("m1"))
		Expect(gotRef.ChannelID).To(Equal("c1"))
	})

	It("falls back to the inbound channel when the response omits it", func() {
		api.sendReplyFn = func(_, _ string, _ *discordgo.MessageReference) (*discordgo.Message, error) {
			return &discordgo.Message{ID: "r1"}, nil
		}

		ref, err := messenger.Reply(ctx, inbound, "hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(ref.ChannelID).To(Equal("c1"))
	})

	It("wraps send errors", func() {
		api.sendReplyFn = func(_, _ string, _ *discordgo.MessageReference) (*discordgo.Message, error) {
			return nil, errors.New("403 forbidden")
		}

		_, err := messenger.Reply(ctx, inbound, "hi")
		Expect(err).To(MatchError(ContainSubstring("403 forbidden")))
	})

	It("edits the referenced message", func() {
		var gotChannel, gotMessage, gotContent string
		api.editFn = func(channelID, messageID, content string) (*discordgo.Message, error) {
			gotChannel, gotMessage, gotContent = channelID, messageID, content
			return &discordgo.Message{}, nil
		}

		err := messenger.Edit(ctx, model.MessageRef{ChannelID: "c1", MessageID: "r1"}, "final")
		Expect(err).NotTo(HaveOccurred())
		Expect([]string{gotChannel, gotMessage, gotContent}).To(Equal([]string{"c1", "r1", "final"}))
	})

	It("wraps edit errors", func() {
		api.editFn = func(_, _, _ string) (*discordgo.Message, error) {
			return nil, errors.New("unknown message")
		}

		err := messenger.Edit(ctx, model.MessageRef{ChannelID: "c1", MessageID: "r1"}, "final")
		Expect(err).To(MatchError(ContainSubstring("unknown message")))
	})
})
