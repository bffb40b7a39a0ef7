package bot_test

import (
	"context"
	"fmt"
	"sync"

	"relaybot.app/relay/internal/model"
	"relaybot.app/relay/internal/prompt"
)

type sentReply struct {
	To      model.InboundMessage
	Content string
}

type sentEdit struct {
	Ref     model.MessageRef
	Content string
}

type mockMessenger struct {
	replyFn func(ctx context.Context, to model.InboundMessage, content string) (model.MessageRef, error)
	editFn  func(ctx context.Context, ref model.MessageRef, content string) error

	mu      sync.Mutex
	replies []sentReply
	edits   []sentEdit
}

func (m *mockMessenger) Reply(ctx context.Context, to model.InboundMessage, content string) (model.MessageRef, error) {
	m.mu.Lock()
	m.replies = append(m.replies, sentReply{To: to, Content: content})
	n := len(m.replies)
	m.mu.Unlock()

	if m.replyFn != nil {
		return m.replyFn(ctx, to, content)
	}
	return model.MessageRef{ChannelID: to.ChannelID, MessageID: fmt.Sprintf("reply-%d", n)}, nil
}

func (m *mockMessenger) Edit(ctx context.Context, ref model.MessageRef, content string) error {
	m.mu.Lock()
	m.edits = append(m.edits, sentEdit{Ref: ref, Content: content})
	m.mu.Unlock()

	if m.editFn != nil {
		return m.editFn(ctx, ref, content)
	}
	return nil
}

func (m *mockMessenger) Replies() []sentReply {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentReply(nil), m.replies...)
}

func (m *mockMessenger) Edits() []sentEdit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentEdit(nil), m.edits...)
}

type mockGenerator struct {
	generateFn func(ctx context.Context, p prompt.Prompt) (string, error)

	mu      sync.Mutex
	prompts []prompt.Prompt
}

func (g *mockGenerator) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, p)
	g.mu.Unlock()

	if g.generateFn != nil {
		return g.generateFn(ctx, p)
	}
	return "", nil
}

func (g *mockGenerator) Prompts() []prompt.Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]prompt.Prompt(nil), g.prompts...)
}
