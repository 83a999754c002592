package llmfactory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdeck-ai/flightdeck/llmfactory"
	"github.com/flightdeck-ai/flightdeck/pkg/llms"
)

func testConfig() *llmfactory.Config {
	return &llmfactory.Config{
		Providers: []*llmfactory.ProviderConfig{
			{
				Name:         "chat",
				Provider:     "GOOGLEAI",
				Token:        "test-key",
				DefaultModel: "gemini-2.0-flash",
			},
			{
				Name:         "backup",
				Provider:     "OPENAI",
				Token:        "test-key",
				DefaultModel: "gpt-4o-mini",
			},
		},
	}
}

func Test_Config_Validate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	cfg := testConfig()
	cfg.Providers[0].Name = ""
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.Providers[0].Provider = "ANTHROPIC"
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.Providers[1].Name = cfg.Providers[0].Name
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate name")
}

func Test_Factory_ModelByName(t *testing.T) {
	ctx := context.Background()
	f := llmfactory.New(testConfig())

	model, err := f.ModelByName(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", model.GetName())
	assert.Equal(t, llms.ProviderGoogleAI, model.GetProviderType())

	// clients are cached per name
	again, err := f.ModelByName(ctx, "chat")
	require.NoError(t, err)
	assert.Same(t, model, again)

	_, err = f.ModelByName(ctx, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider not found")
}

func Test_Factory_ModelByType(t *testing.T) {
	ctx := context.Background()
	f := llmfactory.New(testConfig())

	model, err := f.ModelByType(ctx, "OPENAI")
	require.NoError(t, err)
	assert.Equal(t, llms.ProviderOpenAI, model.GetProviderType())
	assert.Equal(t, "gpt-4o-mini", model.GetName())

	_, err = f.ModelByType(ctx, "ANTHROPIC")
	assert.Error(t, err)
}

func Test_Factory_DefaultModel(t *testing.T) {
	ctx := context.Background()

	f := llmfactory.New(testConfig())
	model, err := f.DefaultModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, llms.ProviderGoogleAI, model.GetProviderType())

	empty := llmfactory.New(&llmfactory.Config{})
	_, err = empty.DefaultModel(ctx)
	assert.Error(t, err)
}

func Test_NewLLM_UnsupportedProvider(t *testing.T) {
	_, err := llmfactory.NewLLM(context.Background(), &llmfactory.ProviderConfig{
		Name:     "bad",
		Provider: "LLAMA",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func Test_LoadConfig_Empty(t *testing.T) {
	cfg, err := llmfactory.LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers)
}

func Test_LoadConfig_File(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "secret")

	path := filepath.Join(t.TempDir(), "llm.yaml")
	content := `providers:
  - name: chat
    provider: GOOGLEAI
    token: ${TEST_GEMINI_KEY}
    default_model: gemini-2.0-flash
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := llmfactory.LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "chat", cfg.Providers[0].Name)
	// ${ENV} values are expanded on load
	assert.Equal(t, "secret", cfg.Providers[0].Token)
}

func Test_LoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm.yaml")
	content := `providers:
  - name: chat
    provider: UNSUPPORTED
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := llmfactory.LoadConfig(path)
	assert.Error(t, err)
}
