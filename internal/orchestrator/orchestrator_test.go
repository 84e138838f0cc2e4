package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storeforge/storeforge/api/schemas"
)

// Counting fakes for each stage slot; a nil err means success.

type fakeBrand struct {
	calls    int
	err      error
	identity schemas.BrandIdentity
}

func (f *fakeBrand) Name() string        { return "brand" }
func (f *fakeBrand) Description() string { return "fake" }

func (f *fakeBrand) Generate(_ context.Context, in schemas.BrandInput, _ *schemas.RunContext) (schemas.BrandIdentity, error) {
	f.calls++
	if f.err != nil {
		return schemas.BrandIdentity{}, f.err
	}
	return f.identity, nil
}

type fakeSourcing struct {
	calls   int
	err     error
	lastIn  schemas.SourcingInput
	winners []*schemas.ScoutedCandidate
}

func (f *fakeSourcing) Name() string        { return "sourcing" }
func (f *fakeSourcing) Description() string { return "fake" }

func (f *fakeSourcing) Generate(_ context.Context, in schemas.SourcingInput, _ *schemas.RunContext) (schemas.SourcingOutput, error) {
	f.calls++
	f.lastIn = in
	if f.err != nil {
		return schemas.SourcingOutput{}, f.err
	}
	return schemas.SourcingOutput{Winners: f.winners, Considered: len(f.winners)}, nil
}

type fakeCopy struct {
	calls  int
	err    error
	lastIn schemas.CopyInput
}

func (f *fakeCopy) Name() string        { return "copywriting" }
func (f *fakeCopy) Description() string { return "fake" }

func (f *fakeCopy) Generate(_ context.Context, in schemas.CopyInput, _ *schemas.RunContext) (schemas.CopyOutput, error) {
	f.calls++
	f.lastIn = in
	if f.err != nil {
		return schemas.CopyOutput{}, f.err
	}
	return schemas.CopyOutput{
		Pages:       []schemas.StorePage{{Kind: schemas.PageAbout, Title: "About", Content: "..."}},
		ProductCopy: []schemas.ProductCopy{{SourceID: "p-1", Headline: "H", Description: "D"}},
	}, nil
}

func validIdentity() schemas.BrandIdentity {
	return schemas.BrandIdentity{
		StoreName: "Voltive",
		Tagline:   "Light up your nights",
		Voice:     "Playful.",
		Palette:   []string{"#0D0D1A", "#FF2E88", "#00F0FF", "#F5F5F5", "#7B2FBE", "#1FDD8E"},
	}
}

func validWinners() []*schemas.ScoutedCandidate {
	return []*schemas.ScoutedCandidate{{Source: "northstar", SourceID: "p-1", Title: "Neon Desk Lamp"}}
}

func runContextFixture() *schemas.RunContext {
	return &schemas.RunContext{
		RunID:   "run-1",
		JobID:   "job-1",
		OwnerID: "owner-1",
		Niche:   "Cyberpunk home decor",
	}
}

func TestNew_RejectsNilDependencies(t *testing.T) {
	logger := zap.NewNop()
	brand, sourcing, copy := &fakeBrand{}, &fakeSourcing{}, &fakeCopy{}

	_, err := New(nil, brand, sourcing, copy)
	assert.Error(t, err)
	_, err = New(logger, nil, sourcing, copy)
	assert.Error(t, err)
	_, err = New(logger, brand, nil, copy)
	assert.Error(t, err)
	_, err = New(logger, brand, sourcing, nil)
	assert.Error(t, err)

	o, err := New(logger, brand, sourcing, copy)
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestRun_HappyPathThreadsOutputsForward(t *testing.T) {
	brand := &fakeBrand{identity: validIdentity()}
	sourcing := &fakeSourcing{winners: validWinners()}
	copywriter := &fakeCopy{}
	o, err := New(zap.NewNop(), brand, sourcing, copywriter)
	require.NoError(t, err)

	var artifacts *schemas.StoreArtifacts
	result := o.Run(context.Background(), runContextFixture(), Options{
		MaxCandidates: 7,
		OnArtifacts:   func(a schemas.StoreArtifacts) { artifacts = &a },
	})

	assert.True(t, result.Success)
	assert.Empty(t, result.FailedStage)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, "job-1", result.JobID)

	assert.Equal(t, 1, brand.calls)
	assert.Equal(t, 1, sourcing.calls)
	assert.Equal(t, 1, copywriter.calls)

	// Sourcing sees the caller's cap; copywriting sees earlier outputs.
	assert.Equal(t, 7, sourcing.lastIn.MaxCandidates)
	assert.Equal(t, "Cyberpunk home decor", sourcing.lastIn.Niche)
	assert.Equal(t, "Voltive", copywriter.lastIn.Brand.StoreName)
	require.Len(t, copywriter.lastIn.Products, 1)
	assert.Equal(t, "p-1", copywriter.lastIn.Products[0].SourceID)

	require.NotNil(t, artifacts)
	assert.Equal(t, "Voltive", artifacts.Brand.StoreName)
	assert.Len(t, artifacts.Winners, 1)
	assert.Len(t, artifacts.Pages, 1)
	assert.Len(t, artifacts.ProductCopy, 1)
}

func TestRun_BrandFailureShortCircuits(t *testing.T) {
	brand := &fakeBrand{err: errors.New("model unavailable")}
	sourcing := &fakeSourcing{winners: validWinners()}
	copywriter := &fakeCopy{}
	o, err := New(zap.NewNop(), brand, sourcing, copywriter)
	require.NoError(t, err)

	result := o.Run(context.Background(), runContextFixture(), Options{})

	assert.False(t, result.Success)
	assert.Equal(t, "brand", result.FailedStage)
	assert.Contains(t, result.Error, "model unavailable")
	assert.Equal(t, 0, sourcing.calls, "sourcing must not run after brand fails")
	assert.Equal(t, 0, copywriter.calls)
}

func TestRun_SourcingFailureSkipsCopywriting(t *testing.T) {
	brand := &fakeBrand{identity: validIdentity()}
	sourcing := &fakeSourcing{err: errors.New("no candidates")}
	copywriter := &fakeCopy{}
	o, err := New(zap.NewNop(), brand, sourcing, copywriter)
	require.NoError(t, err)

	result := o.Run(context.Background(), runContextFixture(), Options{})

	assert.False(t, result.Success)
	assert.Equal(t, "sourcing", result.FailedStage)
	assert.Equal(t, 1, brand.calls)
	assert.Equal(t, 0, copywriter.calls, "copywriting must not run after sourcing fails")
}

func TestRun_CopyFailureNamesCopyStage(t *testing.T) {
	brand := &fakeBrand{identity: validIdentity()}
	sourcing := &fakeSourcing{winners: validWinners()}
	copywriter := &fakeCopy{err: errors.New("page generation failed")}
	o, err := New(zap.NewNop(), brand, sourcing, copywriter)
	require.NoError(t, err)

	result := o.Run(context.Background(), runContextFixture(), Options{})

	assert.False(t, result.Success)
	assert.Equal(t, "copywriting", result.FailedStage)
	assert.Contains(t, result.Error, "page generation failed")
}

func TestRun_StagePanicBecomesStageFailure(t *testing.T) {
	brand := &fakeBrand{identity: validIdentity()}
	sourcing := &panickingSourcing{}
	copywriter := &fakeCopy{}
	o, err := New(zap.NewNop(), brand, sourcing, copywriter)
	require.NoError(t, err)

	var result schemas.GenesisResult
	require.NotPanics(t, func() {
		result = o.Run(context.Background(), runContextFixture(), Options{})
	})

	assert.False(t, result.Success)
	assert.Equal(t, "sourcing", result.FailedStage)
	assert.Contains(t, result.Error, "panic")
	assert.Equal(t, 0, copywriter.calls)
}

type panickingSourcing struct{}

func (p *panickingSourcing) Name() string        { return "sourcing" }
func (p *panickingSourcing) Description() string { return "fake" }

func (p *panickingSourcing) Generate(context.Context, schemas.SourcingInput, *schemas.RunContext) (schemas.SourcingOutput, error) {
	panic("supplier client blew up")
}

func TestRun_CancellationBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel during the brand stage; the orchestrator notices at the next
	// inter-stage checkpoint.
	brand := &fakeBrand{identity: validIdentity()}
	cancellingBrand := &cancelAfterBrand{inner: brand, cancel: cancel}

	sourcing := &fakeSourcing{winners: validWinners()}
	copywriter := &fakeCopy{}
	o, err := New(zap.NewNop(), cancellingBrand, sourcing, copywriter)
	require.NoError(t, err)

	result := o.Run(ctx, runContextFixture(), Options{})

	assert.False(t, result.Success)
	assert.Equal(t, "sourcing", result.FailedStage)
	assert.Contains(t, result.Error, "cancelled")
	assert.Equal(t, 0, sourcing.calls)
	assert.Equal(t, 0, copywriter.calls)
}

type cancelAfterBrand struct {
	inner  *fakeBrand
	cancel context.CancelFunc
}

func (c *cancelAfterBrand) Name() string        { return c.inner.Name() }
func (c *cancelAfterBrand) Description() string { return c.inner.Description() }

func (c *cancelAfterBrand) Generate(ctx context.Context, in schemas.BrandInput, rc *schemas.RunContext) (schemas.BrandIdentity, error) {
	defer c.cancel()
	return c.inner.Generate(ctx, in, rc)
}

func TestRun_DefaultsMaxCandidates(t *testing.T) {
	brand := &fakeBrand{identity: validIdentity()}
	sourcing := &fakeSourcing{winners: validWinners()}
	copywriter := &fakeCopy{}
	o, err := New(zap.NewNop(), brand, sourcing, copywriter)
	require.NoError(t, err)

	result := o.Run(context.Background(), runContextFixture(), Options{})
	require.True(t, result.Success)
	assert.Equal(t, 10, sourcing.lastIn.MaxCandidates)
}

func TestRun_NoArtifactsOnFailure(t *testing.T) {
	brand := &fakeBrand{identity: validIdentity()}
	sourcing := &fakeSourcing{winners: validWinners()}
	copywriter := &fakeCopy{err: errors.New("boom")}
	o, err := New(zap.NewNop(), brand, sourcing, copywriter)
	require.NoError(t, err)

	called := false
	result := o.Run(context.Background(), runContextFixture(), Options{
		OnArtifacts: func(schemas.StoreArtifacts) { called = true },
	})

	assert.False(t, result.Success)
	assert.False(t, called, "artifacts must only be published for successful runs")
}
