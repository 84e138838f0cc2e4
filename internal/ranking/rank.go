package ranking

import (
	"sort"

	"go.uber.org/zap"

	"github.com/storeforge/storeforge/api/schemas"
)

// Engine is the deterministic multi-factor scorer and top-N selector used by
// the sourcing stage.
type Engine struct {
	weights             schemas.ScoringWeights
	similarityThreshold float64
	logger              *zap.Logger
}

// NewEngine builds a ranking engine. A non-positive similarity threshold
// falls back to 0.85.
func NewEngine(weights schemas.ScoringWeights, similarityThreshold float64, logger *zap.Logger) *Engine {
	if similarityThreshold <= 0 || similarityThreshold > 1 {
		similarityThreshold = 0.85
	}
	return &Engine{
		weights:             weights,
		similarityThreshold: similarityThreshold,
		logger:              logger.Named("ranking"),
	}
}

// RankProducts scores every candidate (writing WinningScore as a side
// effect), sorts descending by score with deterministic tie-breaking, drops
// near-duplicate titles keeping the higher-scored member of each group, and
// returns at most topN winners. Re-ranking its own output with the same topN
// yields the same order.
func (e *Engine) RankProducts(candidates []*schemas.ScoutedCandidate, topN int) []*schemas.ScoutedCandidate {
	if len(candidates) == 0 || topN <= 0 {
		return nil
	}

	for _, c := range candidates {
		Score(c, e.weights)
	}

	// Sort a copy so the caller's slice order is untouched.
	sorted := make([]*schemas.ScoutedCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.WinningScore != b.WinningScore {
			return a.WinningScore > b.WinningScore
		}
		if a.OrderCount != b.OrderCount {
			return a.OrderCount > b.OrderCount
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.SourceID < b.SourceID
	})

	// Walk in score order: a candidate similar to an already-kept title is a
	// duplicate of something that scored at least as high, so drop it.
	winners := make([]*schemas.ScoutedCandidate, 0, topN)
	keptTitles := make([]string, 0, topN)
	dropped := 0

	for _, c := range sorted {
		if len(winners) == topN {
			break
		}
		norm := NormalizeTitle(c.Title)
		duplicate := false
		for _, kept := range keptTitles {
			if titleSimilarity(norm, kept) >= e.similarityThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			dropped++
			continue
		}
		winners = append(winners, c)
		keptTitles = append(keptTitles, norm)
	}

	e.logger.Debug("Ranked candidates",
		zap.Int("considered", len(candidates)),
		zap.Int("duplicates_dropped", dropped),
		zap.Int("winners", len(winners)))

	return winners
}
