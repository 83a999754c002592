package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdeck-ai/flightdeck/chatmodel"
	"github.com/flightdeck-ai/flightdeck/pkg/llms"
	"github.com/flightdeck-ai/flightdeck/store"
)

func chatCtx(chatID string) context.Context {
	return chatmodel.WithChatContext(context.Background(),
		chatmodel.NewChatContext("test_app", "user_1", chatID))
}

func Test_MemoryStore(t *testing.T) {
	s := store.NewMemoryStore()

	ctx := chatCtx("chat_1")
	assert.Empty(t, s.Messages(ctx))

	err := s.Add(ctx,
		llms.MessageFromTextParts(llms.RoleHuman, "hi"),
		llms.MessageFromTextParts(llms.RoleAI, "Hello!"),
	)
	require.NoError(t, err)

	msgs := s.Messages(ctx)
	require.Len(t, msgs, 2)
	assert.Equal(t, llms.RoleHuman, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].GetContent())
	assert.Equal(t, llms.RoleAI, msgs[1].Role)

	// chats are isolated by chat ID
	other := chatCtx("chat_2")
	assert.Empty(t, s.Messages(other))

	require.NoError(t, s.Reset(ctx))
	assert.Empty(t, s.Messages(ctx))
}

func Test_MemoryStore_RequiresChatContext(t *testing.T) {
	s := store.NewMemoryStore()

	ctx := context.Background()
	assert.Empty(t, s.Messages(ctx))
	assert.Error(t, s.Add(ctx, llms.MessageFromTextParts(llms.RoleHuman, "hi")))
	assert.Error(t, s.Reset(ctx))
}

func Test_RedisStore_RequiresChatContext(t *testing.T) {
	s := store.NewRedisStore(nil, "test")

	// the chat context is checked before any Redis traffic
	ctx := context.Background()
	assert.Empty(t, s.Messages(ctx))
	assert.Error(t, s.Add(ctx, llms.MessageFromTextParts(llms.RoleHuman, "hi")))
	assert.Error(t, s.Reset(ctx))
}
