package prompt

import (
	"fmt"
	"strings"
)

const userLabel = "User:"

// Prompt is the text sent to the completion service for one mention.
type Prompt struct {
	SystemInstruction string
	UserText          string
}

// String joins the system instruction and the labeled user line.
func (p Prompt) String() string {
	return p.SystemInstruction + "\n\n" + userLabel + " " + p.UserText
}

// Builder holds the process-wide system instruction.
type Builder struct {
	SystemInstruction string
}

func NewBuilder(systemInstruction string) *Builder {
	return &Builder{SystemInstruction: systemInstruction}
}

// Build strips every mention of selfID from rawText and trims the result.
// An empty user text is passed through as-is.
func (b *Builder) Build(rawText, selfID string) Prompt {
	return Prompt{
		SystemInstruction: b.SystemInstruction,
		UserText:          StripMention(rawText, selfID),
	}
}

// StripMention removes both Discord mention forms, <@id> and <@!id>, and trims whitespace.
func StripMention(text, selfID string) string {
	if selfID != "" {
		text = strings.ReplaceAll(text, fmt.Sprintf("<@!%s>", selfID), "")
		text = strings.ReplaceAll(text, fmt.Sprintf("<@%s>", selfID), "")
	}
	return strings.TrimSpace(text)
}
