package model

// Outcome is the terminal state of one inbound event.
type Outcome string

const (
	// OutcomeIgnored: the event was not addressed to the bot or came from a bot.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeAborted: the provisional reply could not be sent.
	OutcomeAborted Outcome = "aborted"
	// OutcomeDone: the provisional reply was edited with the generated text,
	// or the edit failed after generation succeeded.
	OutcomeDone Outcome = "done"
	// OutcomeFailed: generation failed and an apology was sent.
	OutcomeFailed Outcome = "failed"
)
