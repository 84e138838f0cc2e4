// Package sourcing implements the product sourcing stage: it fans out over
// the connected supplier search clients, pools their candidates and hands
// them to the ranking engine to pick the winners.
package sourcing

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/storeforge/storeforge/api/schemas"
	"github.com/storeforge/storeforge/internal/ranking"
)

// SupplierSearcher is the abstract supplier search collaborator. Concrete
// network clients live outside the core; implementations must return
// candidates conforming to the ScoutedCandidate shape.
type SupplierSearcher interface {
	// Name identifies the supplier for credential lookup and logging.
	Name() string
	// Search returns up to limit candidates for the niche.
	Search(ctx context.Context, niche string, limit int) ([]*schemas.ScoutedCandidate, error)
}

// Stage pools supplier candidates and ranks them.
type Stage struct {
	searchers   []SupplierSearcher
	engine      *ranking.Engine
	concurrency int
	logger      *zap.Logger
}

// New builds the sourcing stage over the given suppliers.
func New(searchers []SupplierSearcher, engine *ranking.Engine, concurrency int, logger *zap.Logger) *Stage {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Stage{
		searchers:   searchers,
		engine:      engine,
		concurrency: concurrency,
		logger:      logger.Named("sourcing"),
	}
}

// Name implements stage.Stage.
func (s *Stage) Name() string { return "sourcing" }

// Description implements stage.Stage.
func (s *Stage) Description() string {
	return "Searches connected suppliers for niche products and ranks the winners."
}

// Generate queries every supplier concurrently, pools the candidates and
// ranks them. Each supplier writes into its own result slot; only the
// final pooling is synchronized.
func (s *Stage) Generate(ctx context.Context, in schemas.SourcingInput, rc *schemas.RunContext) (schemas.SourcingOutput, error) {
	var out schemas.SourcingOutput

	if len(s.searchers) == 0 {
		return out, fmt.Errorf("no supplier searchers are connected")
	}

	// Query each supplier generously so ranking has room to dedupe and cut.
	perSupplierLimit := in.MaxCandidates * 3

	var (
		mu     sync.Mutex
		pooled []*schemas.ScoutedCandidate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	done := 0
	for _, searcher := range s.searchers {
		g.Go(func() error {
			found, err := searcher.Search(gctx, in.Niche, perSupplierLimit)
			if err != nil {
				// One bad supplier does not sink the run; the stage fails
				// only when nothing at all was sourced.
				s.logger.Warn("Supplier search failed",
					zap.String("supplier", searcher.Name()),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			pooled = append(pooled, found...)
			done++
			rc.Progress(s.Name(), 60*float64(done)/float64(len(s.searchers)))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}

	if len(pooled) == 0 {
		return out, fmt.Errorf("no candidates found for niche %q across %d suppliers", in.Niche, len(s.searchers))
	}

	winners := s.engine.RankProducts(pooled, in.MaxCandidates)
	if len(winners) == 0 {
		return out, fmt.Errorf("ranking produced no winners from %d candidates", len(pooled))
	}
	rc.Progress(s.Name(), 90)

	s.logger.Info("Sourcing complete",
		zap.Int("considered", len(pooled)),
		zap.Int("winners", len(winners)))

	return schemas.SourcingOutput{Winners: winners, Considered: len(pooled)}, nil
}
