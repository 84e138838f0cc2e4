// Package brand implements the brand identity stage: given a niche and
// optional preferences it asks the model for a store name, tagline, voice
// and a six color palette.
package brand

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/storeforge/storeforge/api/schemas"
	"github.com/storeforge/storeforge/internal/llmutil"
	"github.com/storeforge/storeforge/internal/stage"
)

const systemPrompt = `You are the brand director for a storefront generator.
Given a product niche you produce a complete brand identity as JSON with this exact shape:
{"store_name": string, "tagline": string, "voice": string, "palette": [6 hex colors like "#1A2B3C"]}
The store name must be short and memorable. The voice is one sentence describing the copywriting tone.
The palette must contain exactly six distinct hex colors that suit the niche.`

var validate = validator.New()

// Stage generates the brand identity for a run.
type Stage struct {
	model  schemas.ModelClient
	logger *zap.Logger
}

// New builds the brand stage.
func New(model schemas.ModelClient, logger *zap.Logger) *Stage {
	return &Stage{model: model, logger: logger.Named("brand")}
}

// Name implements stage.Stage.
func (s *Stage) Name() string { return "brand" }

// Description implements stage.Stage.
func (s *Stage) Description() string {
	return "Generates the store name, tagline, voice and color palette for the niche."
}

// Generate asks the model for a structured brand identity and validates it.
func (s *Stage) Generate(ctx context.Context, in schemas.BrandInput, rc *schemas.RunContext) (schemas.BrandIdentity, error) {
	var identity schemas.BrandIdentity

	messages := []schemas.ModelMessage{
		{Role: schemas.RoleSystem, Content: systemPrompt},
		{Role: schemas.RoleUser, Content: buildUserPrompt(in)},
	}

	rc.Progress(s.Name(), 20)
	resp, err := s.model.Invoke(ctx, messages, schemas.InvokeOptions{
		Temperature:      schemas.Temperature(0.9),
		StructuredOutput: true,
	})
	if err != nil {
		return identity, fmt.Errorf("generating brand identity: %w", err)
	}
	stage.RecordUsage(ctx, resp.Usage)
	rc.Progress(s.Name(), 70)

	decoded, err := llmutil.Decode[schemas.BrandIdentity](resp.Content)
	if err != nil {
		return identity, fmt.Errorf("parsing brand identity: %w", err)
	}
	identity = *decoded

	if err := validate.Struct(&identity); err != nil {
		return schemas.BrandIdentity{}, fmt.Errorf("model returned an incomplete brand identity: %w", err)
	}

	s.logger.Info("Brand identity generated",
		zap.String("store_name", identity.StoreName),
		zap.Int("palette_colors", len(identity.Palette)))
	return identity, nil
}

func buildUserPrompt(in schemas.BrandInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Niche: %s\n", in.Niche)
	if in.Preferences.Style != "" {
		fmt.Fprintf(&b, "Preferred style: %s\n", in.Preferences.Style)
	}
	if in.Preferences.Tone != "" {
		fmt.Fprintf(&b, "Preferred tone: %s\n", in.Preferences.Tone)
	}
	if in.Preferences.Audience != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", in.Preferences.Audience)
	}
	b.WriteString("Produce the brand identity JSON.")
	return b.String()
}
