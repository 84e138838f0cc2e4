package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/storeforge/storeforge/api/schemas"
	"github.com/storeforge/storeforge/internal/genesis"
	"github.com/storeforge/storeforge/internal/llmclient"
	"github.com/storeforge/storeforge/internal/observability"
	"github.com/storeforge/storeforge/internal/orchestrator"
	"github.com/storeforge/storeforge/internal/ranking"
	"github.com/storeforge/storeforge/internal/stage/brand"
	"github.com/storeforge/storeforge/internal/stage/copywriting"
	"github.com/storeforge/storeforge/internal/stage/sourcing"
)

var (
	generateNiche    string
	generateOwner    string
	generateStyle    string
	generateTone     string
	generateAudience string
	generateMaxProds int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a storefront for a niche",
	Long: `Runs the full generation sequence (brand identity, product sourcing,
copywriting) for the given niche and waits for the result.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateNiche, "niche", "n", "", "niche description (required)")
	generateCmd.Flags().StringVar(&generateOwner, "owner", "cli", "owner id to attribute the run to")
	generateCmd.Flags().StringVar(&generateStyle, "style", "", "preferred visual style")
	generateCmd.Flags().StringVar(&generateTone, "tone", "", "preferred copy tone")
	generateCmd.Flags().StringVar(&generateAudience, "audience", "", "target audience")
	generateCmd.Flags().IntVar(&generateMaxProds, "max-products", 0, "override the configured winner count")

	if err := generateCmd.MarkFlagRequired("niche"); err != nil {
		panic(fmt.Sprintf("failed to mark niche flag as required: %v", err))
	}

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := llmclient.NewClient(cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("building model client: %w", err)
	}
	defer func() {
		if err := model.Close(); err != nil {
			logger.Warn("Failed to close model client", zap.Error(err))
		}
	}()

	engine := ranking.NewEngine(cfg.Sourcing.Weights, cfg.Sourcing.SimilarityThreshold, logger)
	suppliers := []sourcing.SupplierSearcher{
		sourcing.NewMockSupplier("northstar"),
		sourcing.NewMockSupplier("pacifica"),
	}

	orch, err := orchestrator.New(logger,
		brand.New(model, logger),
		sourcing.New(suppliers, engine, cfg.Engine.StageConcurrency, logger),
		copywriting.New(model, cfg.Engine.StageConcurrency, cfg.Copywrite.MaxProductCopy, logger),
	)
	if err != nil {
		return fmt.Errorf("building orchestrator: %w", err)
	}

	service, err := genesis.NewService(logger, orch, genesis.NewInMemoryJobTracker(), &genesis.LoggingSink{Logger: logger})
	if err != nil {
		return fmt.Errorf("building genesis service: %w", err)
	}

	maxCandidates := cfg.Sourcing.MaxCandidates
	if generateMaxProds > 0 {
		maxCandidates = generateMaxProds
	}

	resp, err := service.StartRun(ctx, genesis.StartRunRequest{
		OwnerID: generateOwner,
		Niche:   generateNiche,
		Preferences: schemas.Preferences{
			Style:    generateStyle,
			Tone:     generateTone,
			Audience: generateAudience,
		},
		MaxCandidates: maxCandidates,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run %s started (job %s)\n", resp.RunID, resp.JobID)

	// The service is asynchronous by contract; the CLI simply waits for its
	// single run to finish and reports the outcome.
	service.Wait()

	record, ok := service.Job(resp.JobID)
	if !ok || record.Result == nil {
		return fmt.Errorf("run %s finished without a recorded result", resp.RunID)
	}
	if !record.Result.Success {
		return fmt.Errorf("run failed in stage %s: %s", record.Result.FailedStage, record.Result.Error)
	}

	fmt.Printf("run %s succeeded\n", resp.RunID)
	return nil
}
