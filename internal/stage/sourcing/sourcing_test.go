package sourcing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storeforge/storeforge/api/schemas"
	"github.com/storeforge/storeforge/internal/ranking"
)

// stubSupplier returns a fixed candidate list or a fixed error.
type stubSupplier struct {
	name       string
	candidates []*schemas.ScoutedCandidate
	err        error
}

func (s *stubSupplier) Name() string { return s.name }

func (s *stubSupplier) Search(_ context.Context, _ string, _ int) ([]*schemas.ScoutedCandidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

func stubCandidate(id, title string) *schemas.ScoutedCandidate {
	return &schemas.ScoutedCandidate{
		Source:         "stub",
		SourceID:       id,
		Title:          title,
		CostPrice:      decimal.RequireFromString("5.00"),
		SuggestedPrice: decimal.RequireFromString("14.99"),
		Rating:         4.3,
		ReviewCount:    300,
		OrderCount:     1500,
		ShippingDays:   6,
		Images:         []string{"a.jpg", "b.jpg", "c.jpg"},
	}
}

func newSourcingStage(searchers ...SupplierSearcher) *Stage {
	engine := ranking.NewEngine(schemas.DefaultScoringWeights(), 0.85, zap.NewNop())
	return New(searchers, engine, 4, zap.NewNop())
}

func TestGenerate_PoolsAcrossSuppliers(t *testing.T) {
	first := &stubSupplier{name: "first", candidates: []*schemas.ScoutedCandidate{
		stubCandidate("f-1", "Aurora Projector Lamp"),
		stubCandidate("f-2", "Ceramic Plant Pot"),
	}}
	second := &stubSupplier{name: "second", candidates: []*schemas.ScoutedCandidate{
		stubCandidate("s-1", "Velvet Throw Pillow"),
	}}

	st := newSourcingStage(first, second)
	out, err := st.Generate(context.Background(), schemas.SourcingInput{Niche: "home decor", MaxCandidates: 10}, &schemas.RunContext{})
	require.NoError(t, err)

	assert.Equal(t, 3, out.Considered)
	assert.Len(t, out.Winners, 3)
	for _, w := range out.Winners {
		assert.Greater(t, w.WinningScore, 0.0)
	}
}

func TestGenerate_CapsWinnersAtMaxCandidates(t *testing.T) {
	var candidates []*schemas.ScoutedCandidate
	for i := 0; i < 20; i++ {
		candidates = append(candidates, stubCandidate(
			fmt.Sprintf("c-%02d", i),
			fmt.Sprintf("Distinct Decor Item Number %d", i),
		))
	}
	st := newSourcingStage(&stubSupplier{name: "bulk", candidates: candidates})

	out, err := st.Generate(context.Background(), schemas.SourcingInput{Niche: "home decor", MaxCandidates: 5}, &schemas.RunContext{})
	require.NoError(t, err)
	assert.Len(t, out.Winners, 5)
	assert.Equal(t, 20, out.Considered)
}

func TestGenerate_OneFailedSupplierIsTolerated(t *testing.T) {
	healthy := &stubSupplier{name: "healthy", candidates: []*schemas.ScoutedCandidate{
		stubCandidate("h-1", "Aurora Projector Lamp"),
	}}
	broken := &stubSupplier{name: "broken", err: errors.New("supplier timeout")}

	st := newSourcingStage(healthy, broken)
	out, err := st.Generate(context.Background(), schemas.SourcingInput{Niche: "home decor", MaxCandidates: 5}, &schemas.RunContext{})
	require.NoError(t, err)
	assert.Len(t, out.Winners, 1)
}

func TestGenerate_FailsWhenNothingSourced(t *testing.T) {
	st := newSourcingStage(
		&stubSupplier{name: "a", err: errors.New("down")},
		&stubSupplier{name: "b", err: errors.New("also down")},
	)

	_, err := st.Generate(context.Background(), schemas.SourcingInput{Niche: "home decor", MaxCandidates: 5}, &schemas.RunContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestGenerate_FailsWithoutSuppliers(t *testing.T) {
	st := newSourcingStage()
	_, err := st.Generate(context.Background(), schemas.SourcingInput{Niche: "home decor", MaxCandidates: 5}, &schemas.RunContext{})
	assert.Error(t, err)
}

func TestGenerate_WinnersHaveDistinctNormalizedTitles(t *testing.T) {
	st := newSourcingStage(
		NewMockSupplier("northstar"),
		NewMockSupplier("pacifica"),
	)

	out, err := st.Generate(context.Background(), schemas.SourcingInput{Niche: "cyberpunk home decor", MaxCandidates: 8}, &schemas.RunContext{})
	require.NoError(t, err)
	require.NotEmpty(t, out.Winners)
	assert.LessOrEqual(t, len(out.Winners), 8)

	seen := map[string]bool{}
	for _, w := range out.Winners {
		norm := ranking.NormalizeTitle(w.Title)
		assert.False(t, seen[norm], "duplicate normalized title %q survived ranking", norm)
		seen[norm] = true
	}
}

func TestMockSupplier_Deterministic(t *testing.T) {
	supplier := NewMockSupplier("northstar")

	first, err := supplier.Search(context.Background(), "Cyberpunk home decor", 10)
	require.NoError(t, err)
	second, err := supplier.Search(context.Background(), "Cyberpunk home decor", 10)
	require.NoError(t, err)

	require.Len(t, first, 10)
	require.Len(t, second, 10)
	for i := range first {
		assert.Equal(t, first[i].SourceID, second[i].SourceID)
		assert.Equal(t, first[i].Title, second[i].Title)
		assert.True(t, first[i].CostPrice.Equal(second[i].CostPrice))
		assert.True(t, first[i].SuggestedPrice.Equal(second[i].SuggestedPrice))
	}
}

func TestMockSupplier_DifferentNamesDiverge(t *testing.T) {
	a, err := NewMockSupplier("northstar").Search(context.Background(), "candles", 10)
	require.NoError(t, err)
	b, err := NewMockSupplier("pacifica").Search(context.Background(), "candles", 10)
	require.NoError(t, err)

	same := 0
	for i := range a {
		if a[i].SourceID == b[i].SourceID {
			same++
		}
	}
	assert.Less(t, same, len(a), "different suppliers must not share a catalog")
}

func TestMockSupplier_CandidatesAreSellable(t *testing.T) {
	candidates, err := NewMockSupplier("northstar").Search(context.Background(), "candles", 25)
	require.NoError(t, err)

	for _, c := range candidates {
		assert.True(t, c.CostPrice.Sign() > 0)
		assert.True(t, c.SuggestedPrice.GreaterThan(c.CostPrice), "suggested price must exceed cost")
		assert.GreaterOrEqual(t, c.Rating, 3.0)
		assert.LessOrEqual(t, c.Rating, 5.0)
		assert.NotEmpty(t, c.Images)
		assert.Equal(t, "northstar", c.Source)
	}
}

func TestMockSupplier_HonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockSupplier("northstar").Search(ctx, "candles", 5)
	assert.ErrorIs(t, err, context.Canceled)
}
