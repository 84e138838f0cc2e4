package sourcing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storeforge/storeforge/api/schemas"
)

// MockSupplier is a deterministic synthetic supplier for development and
// testing. Candidates are derived from a PRNG seeded by the niche and the
// supplier name, so identical queries always return identical catalogs.
type MockSupplier struct {
	name string
}

var _ SupplierSearcher = (*MockSupplier)(nil)

// NewMockSupplier builds a synthetic supplier with the given name.
func NewMockSupplier(name string) *MockSupplier {
	return &MockSupplier{name: name}
}

// Name implements SupplierSearcher.
func (m *MockSupplier) Name() string { return m.name }

var productNouns = []string{
	"Lamp", "Poster", "Rug", "Clock", "Shelf", "Mug", "Planter",
	"Throw Pillow", "Wall Art", "Desk Mat", "Neon Sign", "Figurine",
}

var productAdjectives = []string{
	"Deluxe", "Premium", "Handcrafted", "Modular", "Vintage",
	"Limited Edition", "Smart", "Oversized",
}

// Search implements SupplierSearcher with deterministic synthetic data.
func (m *MockSupplier) Search(ctx context.Context, niche string, limit int) ([]*schemas.ScoutedCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(m.name))
	_, _ = h.Write([]byte(strings.ToLower(niche)))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	candidates := make([]*schemas.ScoutedCandidate, 0, limit)
	for i := 0; i < limit; i++ {
		noun := productNouns[rng.Intn(len(productNouns))]
		adj := productAdjectives[rng.Intn(len(productAdjectives))]
		title := fmt.Sprintf("%s %s %s", adj, niche, noun)

		cost := decimal.NewFromInt(int64(3 + rng.Intn(40))).Add(decimal.NewFromInt(int64(rng.Intn(100))).Div(decimal.NewFromInt(100)))
		markup := decimal.NewFromFloat(1.4 + rng.Float64()*1.8)
		suggested := cost.Mul(markup).Round(2)

		imageCount := 1 + rng.Intn(7)
		images := make([]string, imageCount)
		for j := range images {
			images[j] = fmt.Sprintf("https://img.%s.example/%s/%d-%d.jpg", m.name, strings.ReplaceAll(strings.ToLower(noun), " ", "-"), i, j)
		}

		candidates = append(candidates, &schemas.ScoutedCandidate{
			Source:         m.name,
			SourceID:       fmt.Sprintf("%s-%06d", m.name, rng.Intn(1_000_000)),
			Title:          title,
			Description:    fmt.Sprintf("A %s %s for %s enthusiasts.", strings.ToLower(adj), strings.ToLower(noun), niche),
			CostPrice:      cost,
			SuggestedPrice: suggested,
			Rating:         3.0 + rng.Float64()*2.0,
			ReviewCount:    rng.Intn(5000),
			OrderCount:     rng.Intn(50000),
			ShippingDays:   2 + rng.Intn(28),
			Images:         images,
		})
	}
	return candidates, nil
}
