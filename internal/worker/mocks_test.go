package worker_test

import (
	"context"
	"sync"

	"relaybot.app/relay/internal/model"
)

type mockHandler struct {
	handleFn func(ctx context.Context, msg model.InboundMessage) model.Outcome

	mu      sync.Mutex
	handled []model.InboundMessage
}

func (m *mockHandler) Handle(ctx context.Context, msg model.InboundMessage) model.Outcome {
	m.mu.Lock()
	m.handled = append(m.handled, msg)
	m.mu.Unlock()

	if m.handleFn != nil {
		return m.handleFn(ctx, msg)
	}
	return model.OutcomeDone
}

func (m *mockHandler) HandledIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.handled))
	for i, msg := range m.handled {
		ids[i] = msg.ID
	}
	return ids
}
