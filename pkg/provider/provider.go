// Package provider defines the model provider interfaces the pipeline is
// built against. Concrete SDK clients live in subpackages.
package provider

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a chat-completion request.
type Message struct {
	Role    Role
	Content string
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

type CompleteOptions struct {
	// Temperature overrides the provider default when set.
	Temperature *float64
}

// Completer generates a chat completion for an ordered message list.
type Completer interface {
	Complete(ctx context.Context, messages []Message, options *CompleteOptions) (string, error)
}

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
