package llm

import "strings"

// Role identifies the sender of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest holds the parameters of a completion call.
type CompletionRequest struct {
	Model       string // provider default when empty
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is the result of a completion call.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// Finished reports whether the model ended its answer on its own. A reply
// cut at the output token cap ("length", "MAX_TOKENS") or blocked by a
// safety filter is not finished. Providers that omit the reason count as
// finished.
func (r *CompletionResponse) Finished() bool {
	return r.FinishReason == "" || strings.EqualFold(r.FinishReason, "stop")
}

// split separates system instructions from the conversation turns.
func split(msgs []Message) (system string, turns []Message) {
	for _, m := range msgs {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
