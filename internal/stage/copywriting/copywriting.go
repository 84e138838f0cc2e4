// Package copywriting implements the final generation stage: the store's
// legal pages and marketing copy for each winning product. Sub-calls are
// independent and run concurrently under a configurable limit; each writes
// to its own output slot.
package copywriting

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/storeforge/storeforge/api/schemas"
	"github.com/storeforge/storeforge/internal/llmutil"
	"github.com/storeforge/storeforge/internal/stage"
)

const pageSystemPrompt = `You write storefront content pages.
You are given the store's brand identity and a page to produce.
Write complete, ready to publish page copy in the store's voice. Plain text, no markdown headings.`

const productSystemPrompt = `You write product marketing copy for an online store.
You are given the store's brand identity and one product.
Respond as JSON with this exact shape:
{"headline": string, "description": string, "bullets": [3 to 5 short selling points]}`

// Stage generates storefront copy from the brand identity and the ranked
// winners.
type Stage struct {
	model          schemas.ModelClient
	concurrency    int
	maxProductCopy int
	logger         *zap.Logger
}

// New builds the copywriting stage.
func New(model schemas.ModelClient, concurrency, maxProductCopy int, logger *zap.Logger) *Stage {
	if concurrency < 1 {
		concurrency = 1
	}
	if maxProductCopy < 1 {
		maxProductCopy = 1
	}
	return &Stage{
		model:          model,
		concurrency:    concurrency,
		maxProductCopy: maxProductCopy,
		logger:         logger.Named("copywriting"),
	}
}

// Name implements stage.Stage.
func (s *Stage) Name() string { return "copywriting" }

// Description implements stage.Stage.
func (s *Stage) Description() string {
	return "Generates legal pages and per-product marketing copy in the brand voice."
}

// Generate produces one page per required legal page kind plus marketing
// copy for the winners. Any single failed sub-call fails the stage; partial
// copy is not valid output.
func (s *Stage) Generate(ctx context.Context, in schemas.CopyInput, rc *schemas.RunContext) (schemas.CopyOutput, error) {
	var out schemas.CopyOutput

	pageKinds := schemas.RequiredLegalPages()
	products := in.Products
	if len(products) > s.maxProductCopy {
		products = products[:s.maxProductCopy]
	}

	pages := make([]schemas.StorePage, len(pageKinds))
	productCopy := make([]schemas.ProductCopy, len(products))
	total := len(pageKinds) + len(products)
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	step := func() {
		done := completed.Add(1)
		rc.Progress(s.Name(), 95*float64(done)/float64(total))
	}

	for i, kind := range pageKinds {
		g.Go(func() error {
			page, err := s.generatePage(gctx, in.Brand, kind)
			if err != nil {
				return fmt.Errorf("generating %s page: %w", kind, err)
			}
			pages[i] = page
			step()
			return nil
		})
	}

	for i, product := range products {
		g.Go(func() error {
			pc, err := s.generateProductCopy(gctx, in.Brand, product)
			if err != nil {
				return fmt.Errorf("generating copy for product %s: %w", product.SourceID, err)
			}
			productCopy[i] = pc
			step()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return out, err
	}

	s.logger.Info("Copywriting complete",
		zap.Int("pages", len(pages)),
		zap.Int("product_copy", len(productCopy)))

	return schemas.CopyOutput{Pages: pages, ProductCopy: productCopy}, nil
}

func (s *Stage) generatePage(ctx context.Context, brand schemas.BrandIdentity, kind schemas.LegalPageKind) (schemas.StorePage, error) {
	userPrompt := fmt.Sprintf(
		"Store: %s\nTagline: %s\nVoice: %s\n\nWrite the %q page for this store.",
		brand.StoreName, brand.Tagline, brand.Voice, kind)

	resp, err := s.model.Invoke(ctx, []schemas.ModelMessage{
		{Role: schemas.RoleSystem, Content: pageSystemPrompt},
		{Role: schemas.RoleUser, Content: userPrompt},
	}, schemas.InvokeOptions{Temperature: schemas.Temperature(0.6)})
	if err != nil {
		return schemas.StorePage{}, err
	}
	stage.RecordUsage(ctx, resp.Usage)
	if resp.Content == "" {
		return schemas.StorePage{}, fmt.Errorf("model returned empty page content")
	}

	return schemas.StorePage{
		Kind:    kind,
		Title:   pageTitle(kind, brand.StoreName),
		Content: resp.Content,
	}, nil
}

func (s *Stage) generateProductCopy(ctx context.Context, brand schemas.BrandIdentity, product *schemas.ScoutedCandidate) (schemas.ProductCopy, error) {
	userPrompt := fmt.Sprintf(
		"Store: %s\nVoice: %s\n\nProduct: %s\nSupplier description: %s\nPrice: %s\n\nProduce the marketing copy JSON.",
		brand.StoreName, brand.Voice, product.Title, product.Description, product.SuggestedPrice.StringFixed(2))

	resp, err := s.model.Invoke(ctx, []schemas.ModelMessage{
		{Role: schemas.RoleSystem, Content: productSystemPrompt},
		{Role: schemas.RoleUser, Content: userPrompt},
	}, schemas.InvokeOptions{Temperature: schemas.Temperature(0.8), StructuredOutput: true})
	if err != nil {
		return schemas.ProductCopy{}, err
	}
	stage.RecordUsage(ctx, resp.Usage)

	decoded, err := llmutil.Decode[schemas.ProductCopy](resp.Content)
	if err != nil {
		return schemas.ProductCopy{}, err
	}
	pc := *decoded
	pc.SourceID = product.SourceID
	if pc.Headline == "" || pc.Description == "" {
		return schemas.ProductCopy{}, fmt.Errorf("model returned incomplete product copy")
	}
	return pc, nil
}

func pageTitle(kind schemas.LegalPageKind, storeName string) string {
	switch kind {
	case schemas.PageAbout:
		return "About " + storeName
	case schemas.PagePrivacy:
		return "Privacy Policy"
	case schemas.PageTerms:
		return "Terms of Service"
	case schemas.PageRefund:
		return "Refund Policy"
	default:
		return storeName
	}
}
