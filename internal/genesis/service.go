// Package genesis exposes the inbound "start generation run" operation.
// Callers get their run and job identifiers back immediately; the run itself
// executes on a background goroutine and reports through the job tracker and
// event sink.
package genesis

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storeforge/storeforge/api/schemas"
	"github.com/storeforge/storeforge/internal/orchestrator"
)

// Runner abstracts the orchestrator for testability.
type Runner interface {
	Run(ctx context.Context, rc *schemas.RunContext, opts orchestrator.Options) schemas.GenesisResult
}

// EventSink receives progress and completion events. Implementations must be
// safe for concurrent use; events are advisory and never block a run.
type EventSink interface {
	StageProgress(runID, stage string, percent float64)
	RunFinished(result schemas.GenesisResult)
	ArtifactsReady(runID string, artifacts schemas.StoreArtifacts)
}

// LoggingSink is the bundled EventSink: it logs events and keeps nothing.
type LoggingSink struct {
	Logger *zap.Logger
}

var _ EventSink = (*LoggingSink)(nil)

func (s *LoggingSink) StageProgress(runID, stage string, percent float64) {
	s.Logger.Debug("Stage progress",
		zap.String("run_id", runID),
		zap.String("stage", stage),
		zap.Float64("percent", percent))
}

func (s *LoggingSink) RunFinished(result schemas.GenesisResult) {
	if result.Success {
		s.Logger.Info("Run finished", zap.String("run_id", result.RunID))
		return
	}
	s.Logger.Warn("Run finished with failure",
		zap.String("run_id", result.RunID),
		zap.String("failed_stage", result.FailedStage),
		zap.String("error", result.Error))
}

func (s *LoggingSink) ArtifactsReady(runID string, artifacts schemas.StoreArtifacts) {
	s.Logger.Info("Store artifacts ready",
		zap.String("run_id", runID),
		zap.String("store_name", artifacts.Brand.StoreName),
		zap.Int("products", len(artifacts.Winners)),
		zap.Int("pages", len(artifacts.Pages)))
}

// StartRunRequest is the inbound payload for one generation run.
type StartRunRequest struct {
	OwnerID             string
	Niche               string
	Preferences         schemas.Preferences
	MaxCandidates       int
	SupplierCredentials map[string]string
}

// StartRunResponse returns the identifiers a caller polls with.
type StartRunResponse struct {
	RunID string `json:"run_id"`
	JobID string `json:"job_id"`
}

// Service owns run admission and background execution.
type Service struct {
	logger  *zap.Logger
	runner  Runner
	tracker JobTracker
	sink    EventSink
	wg      sync.WaitGroup
}

// NewService wires the inbound service.
func NewService(logger *zap.Logger, runner Runner, tracker JobTracker, sink EventSink) (*Service, error) {
	if logger == nil || runner == nil || tracker == nil || sink == nil {
		return nil, fmt.Errorf("cannot initialize genesis service with nil dependencies")
	}
	return &Service{
		logger:  logger.Named("genesis"),
		runner:  runner,
		tracker: tracker,
		sink:    sink,
	}, nil
}

// StartRun validates the request, registers the job and launches the run in
// the background. It returns immediately with the run and job identifiers.
// The provided context governs the run itself, not just this call: cancel it
// to stop the run between stages.
func (s *Service) StartRun(ctx context.Context, req StartRunRequest) (StartRunResponse, error) {
	if req.OwnerID == "" {
		return StartRunResponse{}, fmt.Errorf("owner id is required")
	}
	if req.Niche == "" {
		return StartRunResponse{}, fmt.Errorf("niche is required")
	}

	runID := uuid.NewString()
	jobID := uuid.NewString()

	if err := s.tracker.Create(JobRecord{
		JobID:   jobID,
		RunID:   runID,
		OwnerID: req.OwnerID,
		Niche:   req.Niche,
		Status:  JobQueued,
	}); err != nil {
		return StartRunResponse{}, fmt.Errorf("registering job: %w", err)
	}

	rc := &schemas.RunContext{
		RunID:       runID,
		JobID:       jobID,
		OwnerID:     req.OwnerID,
		Niche:       req.Niche,
		Preferences: req.Preferences,
		Metadata:    map[string]string{},
		OnProgress: func(stage string, percent float64) {
			s.sink.StageProgress(runID, stage, percent)
		},
	}

	opts := orchestrator.Options{
		MaxCandidates:       req.MaxCandidates,
		SupplierCredentials: req.SupplierCredentials,
		OnArtifacts: func(artifacts schemas.StoreArtifacts) {
			s.sink.ArtifactsReady(runID, artifacts)
		},
	}

	s.wg.Add(1)
	go s.execute(ctx, rc, opts)

	s.logger.Info("Run admitted",
		zap.String("run_id", runID),
		zap.String("job_id", jobID),
		zap.String("owner_id", req.OwnerID))

	return StartRunResponse{RunID: runID, JobID: jobID}, nil
}

// Wait blocks until every in-flight run has finished. Call during shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Job returns the tracked record for a job id.
func (s *Service) Job(jobID string) (JobRecord, bool) {
	return s.tracker.Get(jobID)
}

func (s *Service) execute(ctx context.Context, rc *schemas.RunContext, opts orchestrator.Options) {
	defer s.wg.Done()

	if err := s.tracker.SetStatus(rc.JobID, JobRunning); err != nil {
		s.logger.Warn("Failed to mark job running", zap.String("job_id", rc.JobID), zap.Error(err))
	}

	result := s.runner.Run(ctx, rc, opts)

	if err := s.tracker.Finalize(rc.JobID, result); err != nil {
		s.logger.Warn("Failed to finalize job", zap.String("job_id", rc.JobID), zap.Error(err))
	}
	s.sink.RunFinished(result)
}
