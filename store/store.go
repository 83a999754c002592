// Package store persists conversation history, keyed by the chat ID
// carried in the request context.
package store

import (
	"context"

	"github.com/effective-security/xlog"

	"github.com/flightdeck-ai/flightdeck/pkg/llms"
)

var logger = xlog.NewPackageLogger("github.com/flightdeck-ai/flightdeck", "store")

// MessageStore keeps the messages of a conversation.
type MessageStore interface {
	Messages(ctx context.Context) []llms.Message
	Add(ctx context.Context, msgs ...llms.Message) error
	Reset(ctx context.Context) error
}

// chatMessageModel is the serializable form of a message.
// Only the textual content survives a round trip; tool call details
// are not replayed into later prompts.
type chatMessageModel struct {
	Role    llms.Role `json:"role"`
	Content string    `json:"content"`
}

func toModel(msg llms.Message) chatMessageModel {
	return chatMessageModel{
		Role:    msg.Role,
		Content: msg.GetContent(),
	}
}

// hasContent reports whether the message serializes to non-empty text.
// Tool-call traffic has no textual content and is not persisted, so a
// replayed history never carries empty messages back to the provider.
func hasContent(msg llms.Message) bool {
	return msg.GetContent() != ""
}

func fromModel(m chatMessageModel) llms.Message {
	return llms.MessageFromTextParts(m.Role, m.Content)
}
