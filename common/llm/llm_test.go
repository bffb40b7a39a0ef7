package llm_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"relaybot.app/relay/common/llm"
)

var _ = Describe("New", func() {
	ctx := context.Background()

	It("requires an API key", func() {
		client, err := llm.New(ctx, llm.Config{Provider: llm.ProviderGemini, Model: "gemini-2.5-flash"})
		Expect(err).To(MatchError("API key is required"))
		Expect(client).To(BeNil())
	})

	It("rejects unknown providers", func() {
		_, err := llm.New(ctx, llm.Config{Provider: "palm", APIKey: "key"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM provider")))
	})

	DescribeTable("binds the client to the configured model",
		func(provider, model string) {
			client, err := llm.New(ctx, llm.Config{Provider: provider, APIKey: "key", Model: model})
			Expect(err).NotTo(HaveOccurred())
			Expect(client.Model()).To(Equal(model))
		},
		Entry("gemini", llm.ProviderGemini, "gemini-2.0-flash"),
		Entry("openai", llm.ProviderOpenAI, "gpt-4o-mini"),
		Entry("anthropic", llm.ProviderAnthropic, "claude-haiku-4-5"),
	)

	It("defaults to gemini when no provider is given", func() {
		client, err := llm.New(ctx, llm.Config{APIKey: "key"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gemini-2.5-flash"))
	})
})

var _ = Describe("ContentSchema", func() {
	It("describes a single required content string", func() {
		data, err := json.Marshal(llm.ContentSchema())
		Expect(err).NotTo(HaveOccurred())

		var schema map[string]any
		Expect(json.Unmarshal(data, &schema)).To(Succeed())
		Expect(schema["type"]).To(Equal("object"))
		Expect(schema["required"]).To(ConsistOf("content"))
		Expect(schema["properties"]).To(HaveKey("content"))
		Expect(schema["additionalProperties"]).To(BeFalse())
	})
})
