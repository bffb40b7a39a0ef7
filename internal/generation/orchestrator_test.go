package generation_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"relaybot.app/relay/internal/generation"
	"relaybot.app/relay/internal/model"
	"relaybot.app/relay/internal/prompt"
)

var _ = Describe("Orchestrator", func() {
	var (
		ctx    context.Context
		p      prompt.Prompt
		policy generation.RetryPolicy
	)

	BeforeEach(func() {
		ctx = context.Background()
		p = prompt.NewBuilder("sys").Build("<@1> hello", "1")
		policy = generation.RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}
	})

	It("returns the primary's text without touching the secondary", func() {
		primary := &scriptedClient{model: "fast", reply: "from primary"}
		secondary := &scriptedClient{model: "fallback", reply: "from secondary"}

		out, err := generation.NewOrchestrator(primary, secondary, policy).Generate(ctx, p)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("from primary"))
		Expect(primary.Calls()).To(Equal(1))
		Expect(secondary.Calls()).To(BeZero())
	})

	It("uses the primary's retries before falling back", func() {
		primary := &scriptedClient{model: "fast", failures: 2, reply: "third time"}
		secondary := &scriptedClient{model: "fallback", reply: "from secondary"}

		out, err := generation.NewOrchestrator(primary, secondary, policy).Generate(ctx, p)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("third time"))
		Expect(primary.Calls()).To(Equal(3))
		Expect(secondary.Calls()).To(BeZero())
	})

	It("falls back after exactly maxAttempts primary calls", func() {
		primary := failingClient("fast")
		secondary := &scriptedClient{model: "fallback", reply: "from secondary"}

		out, err := generation.NewOrchestrator(primary, secondary, policy).Generate(ctx, p)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("from secondary"))
		Expect(primary.Calls()).To(Equal(3))
		Expect(secondary.Calls()).To(Equal(1))
	})

	It("gives the secondary its own retry budget", func() {
		primary := failingClient("fast")
		secondary := &scriptedClient{model: "fallback", failures: 2, reply: "late"}

		out, err := generation.NewOrchestrator(primary, secondary, policy).Generate(ctx, p)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("late"))
		Expect(secondary.Calls()).To(Equal(3))
	})

	It("propagates the secondary's error when both tiers are exhausted", func() {
		primary := failingClient("fast")
		secondary := failingClient("fallback")

		_, err := generation.NewOrchestrator(primary, secondary, policy).Generate(ctx, p)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, generation.ErrExhausted)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("fallback overloaded (call 3)"))
		Expect(err.Error()).NotTo(ContainSubstring("fast overloaded"))
		Expect(primary.Calls()).To(Equal(3))
		Expect(secondary.Calls()).To(Equal(3))
	})

	It("sends both tiers the same assembled prompt", func() {
		primary := failingClient("fast")
		secondary := &scriptedClient{model: "fallback", reply: "ok"}

		_, err := generation.NewOrchestrator(primary, secondary, policy).Generate(ctx, p)
		Expect(err).NotTo(HaveOccurred())
		Expect(primary.prompts).To(HaveEach("sys\n\nUser: hello"))
		Expect(secondary.prompts).To(Equal([]string{"sys\n\nUser: hello"}))
	})

	It("reports the fallback order", func() {
		o := generation.NewOrchestrator(failingClient("fast"), failingClient("fallback"), policy)
		Expect(o.Models()).To(Equal([]model.ModelDescriptor{
			{Name: "fast", Tier: model.TierPrimary},
			{Name: "fallback", Tier: model.TierSecondary},
		}))
	})
})
