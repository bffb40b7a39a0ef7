package model

// InboundMessage is one message_create event as seen by the bot.
// It is produced by the chat platform adapter and consumed exactly once.
type InboundMessage struct {
	ID           string
	ChannelID    string
	GuildID      string // empty for direct messages
	AuthorID     string
	AuthorIsBot  bool
	RawText      string
	MentionsSelf bool
	SelfID       string // the bot's own user ID at the time of the event
}

// FromSelf reports whether the message was written by the bot itself.
func (m InboundMessage) FromSelf() bool {
	return m.SelfID != "" && m.AuthorID == m.SelfID
}

// MessageRef identifies an outbound message so it can be edited later.
type MessageRef struct {
	ChannelID string
	MessageID string
}
