package brand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storeforge/storeforge/api/schemas"
	"github.com/storeforge/storeforge/internal/llmclient"
	"github.com/storeforge/storeforge/internal/stage"
)

// fakeModel replays a scripted response and records the conversation.
type fakeModel struct {
	response string
	usage    schemas.TokenUsage
	err      error
	captured []schemas.ModelMessage
	opts     schemas.InvokeOptions
}

func (f *fakeModel) Invoke(_ context.Context, messages []schemas.ModelMessage, opts schemas.InvokeOptions) (*schemas.ModelResponse, error) {
	f.captured = messages
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &schemas.ModelResponse{Content: f.response, Model: "fake", Usage: f.usage}, nil
}

func (f *fakeModel) Close() error { return nil }

const validIdentityJSON = `{
	"store_name": "Voltive",
	"tagline": "Light up your nights",
	"voice": "Playful, confident, a little futuristic.",
	"palette": ["#0D0D1A", "#FF2E88", "#00F0FF", "#F5F5F5", "#7B2FBE", "#1FDD8E"]
}`

func TestGenerate_ParsesAndValidatesIdentity(t *testing.T) {
	model := &fakeModel{response: validIdentityJSON}
	st := New(model, zap.NewNop())

	in := schemas.BrandInput{
		Niche:       "Cyberpunk home decor",
		Preferences: schemas.Preferences{Style: "minimalist", Audience: "young professionals"},
	}
	identity, err := st.Generate(context.Background(), in, &schemas.RunContext{})
	require.NoError(t, err)

	assert.Equal(t, "Voltive", identity.StoreName)
	assert.Equal(t, "Light up your nights", identity.Tagline)
	assert.Len(t, identity.Palette, 6)

	// The model call carries the structured-output contract and the caller's
	// niche and preferences.
	assert.True(t, model.opts.StructuredOutput)
	require.Len(t, model.captured, 2)
	assert.Equal(t, schemas.RoleSystem, model.captured[0].Role)
	assert.Contains(t, model.captured[1].Content, "Cyberpunk home decor")
	assert.Contains(t, model.captured[1].Content, "minimalist")
	assert.Contains(t, model.captured[1].Content, "young professionals")
}

func TestGenerate_ReportsTokenUsageToRunner(t *testing.T) {
	model := &fakeModel{
		response: validIdentityJSON,
		usage:    schemas.TokenUsage{PromptTokens: 210, CompletionTokens: 85, TotalTokens: 295},
	}
	st := New(model, zap.NewNop())

	result := stage.Run[schemas.BrandInput, schemas.BrandIdentity](
		context.Background(), st, schemas.BrandInput{Niche: "candles"}, &schemas.RunContext{}, zap.NewNop())

	require.True(t, result.Success)
	assert.Equal(t, 210, result.Metadata["prompt_tokens"])
	assert.Equal(t, 85, result.Metadata["completion_tokens"])
	assert.Equal(t, 295, result.Metadata["total_tokens"])
}

func TestGenerate_ToleratesFencedReply(t *testing.T) {
	model := &fakeModel{response: "```json\n" + validIdentityJSON + "\n```"}
	st := New(model, zap.NewNop())

	identity, err := st.Generate(context.Background(), schemas.BrandInput{Niche: "candles"}, &schemas.RunContext{})
	require.NoError(t, err)
	assert.Equal(t, "Voltive", identity.StoreName)
}

func TestGenerate_ModelErrorPropagates(t *testing.T) {
	model := &fakeModel{err: llmclient.ErrProviderUnavailable}
	st := New(model, zap.NewNop())

	_, err := st.Generate(context.Background(), schemas.BrandInput{Niche: "candles"}, &schemas.RunContext{})
	require.Error(t, err)
	assert.ErrorIs(t, err, llmclient.ErrProviderUnavailable)
}

func TestGenerate_RejectsIncompleteIdentity(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{
			name:     "missing tagline",
			response: `{"store_name":"Voltive","voice":"calm","palette":["#111111","#222222","#333333","#444444","#555555","#666666"]}`,
		},
		{
			name:     "five color palette",
			response: `{"store_name":"Voltive","tagline":"t","voice":"v","palette":["#111111","#222222","#333333","#444444","#555555"]}`,
		},
		{
			name:     "non-hex palette entry",
			response: `{"store_name":"Voltive","tagline":"t","voice":"v","palette":["#111111","#222222","#333333","#444444","#555555","plaid"]}`,
		},
		{
			name:     "not json",
			response: "I'd rather talk about something else.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := New(&fakeModel{response: tc.response}, zap.NewNop())
			_, err := st.Generate(context.Background(), schemas.BrandInput{Niche: "candles"}, &schemas.RunContext{})
			assert.Error(t, err)
		})
	}
}

func TestBuildUserPrompt_OmitsEmptyPreferences(t *testing.T) {
	prompt := buildUserPrompt(schemas.BrandInput{Niche: "candles"})
	assert.Contains(t, prompt, "Niche: candles")
	assert.NotContains(t, prompt, "Preferred style")
	assert.NotContains(t, prompt, "Target audience")
}
