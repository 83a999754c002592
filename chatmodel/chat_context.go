// Package chatmodel carries per-conversation identity through context.
package chatmodel

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"github.com/google/uuid"
)

// ErrInvalidChatContext is returned when the context does not carry a chat context.
var ErrInvalidChatContext = errors.New("invalid chat context")

// ChatContext identifies a conversation session.
// It contains the application name, the user ID and the chat ID.
type ChatContext interface {
	GetAppName() string
	GetUserID() string
	GetChatID() string
	// GetMetadata retrieves metadata by key
	GetMetadata(key string) (value any, ok bool)
	// SetMetadata sets metadata by key
	SetMetadata(key string, value any)
}

type chatContext struct {
	appName  string
	userID   string
	chatID   string
	metadata sync.Map
}

func (c *chatContext) GetAppName() string {
	return c.appName
}

func (c *chatContext) GetUserID() string {
	return c.userID
}

func (c *chatContext) GetChatID() string {
	return c.chatID
}

func (c *chatContext) GetMetadata(key string) (value any, ok bool) {
	return c.metadata.Load(key)
}

func (c *chatContext) SetMetadata(key string, value any) {
	c.metadata.Store(key, value)
}

// NewChatContext creates a ChatContext.
// An empty chatID is replaced with a generated one.
func NewChatContext(appName, userID, chatID string) ChatContext {
	return &chatContext{
		appName: appName,
		userID:  userID,
		chatID:  values.StringsCoalesce(chatID, NewChatID()),
	}
}

// NewChatID returns a new unique chat ID.
func NewChatID() string {
	return uuid.NewString()
}

type contextKey int

const (
	keyContext contextKey = iota
)

// WithChatContext returns a new context with ChatContext value.
func WithChatContext(ctx context.Context, chatCtx ChatContext) context.Context {
	return context.WithValue(ctx, keyContext, chatCtx)
}

// GetChatContext retrieves the ChatContext from the context,
// or nil when not set.
func GetChatContext(ctx context.Context) ChatContext {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v
	}
	return nil
}

// GetChatID retrieves the chat ID from the provided context.
// It returns an error when the context does not carry a chat context.
func GetChatID(ctx context.Context) (string, error) {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v.GetChatID(), nil
	}
	return "", errors.WithStack(ErrInvalidChatContext)
}
