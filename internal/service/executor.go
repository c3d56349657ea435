// internal/service/executor.go
package service

import (
    "context"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/unclebandit/outreach-backend/internal/model"
)

// ExecutionRequest is what a channel executor gets for one attempt.
type ExecutionRequest struct {
    StepType string
    Config   map[string]any
    Lead     *model.CampaignLead
    TenantID uuid.UUID
}

// ExecutionResult reports one dispatch outcome.
type ExecutionResult struct {
    Success bool
    Data    map[string]any
    Error   string
}

// StepExecutor is the port to the concrete channel senders (LinkedIn, email,
// WhatsApp, voice). The engine only needs this contract.
type StepExecutor interface {
    Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)
}

// Registry resolves step types to executors. It is built once at startup so
// the set of known types is explicit rather than discovered by string
// matching at dispatch time.
type Registry struct {
    executors map[string]StepExecutor
    log       *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
    return &Registry{
        executors: make(map[string]StepExecutor),
        log:       log,
    }
}

func (r *Registry) Register(stepType string, executor StepExecutor) {
    r.executors[stepType] = executor
}

// Execute dispatches to the registered executor. Unknown step types are
// treated as successful no-ops so a newer authoring surface can add types
// without breaking older engines; the warning keeps misconfiguration
// visible.
func (r *Registry) Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error) {
    executor, ok := r.executors[req.StepType]
    if !ok {
        r.log.Warn("no executor registered for step type, treating as no-op",
            zap.String("step_type", req.StepType))
        return &ExecutionResult{Success: true}, nil
    }
    return executor.Execute(ctx, req)
}

// NoopExecutor succeeds without doing anything. Registered for start/end
// markers.
type NoopExecutor struct{}

func (NoopExecutor) Execute(_ context.Context, _ ExecutionRequest) (*ExecutionResult, error) {
    return &ExecutionResult{Success: true}, nil
}

// LoggingExecutor stands in for a real channel sender in development
// deployments: it logs the dispatch and reports success.
type LoggingExecutor struct {
    Log *zap.Logger
}

func (e *LoggingExecutor) Execute(_ context.Context, req ExecutionRequest) (*ExecutionResult, error) {
    e.Log.Info("dispatching step",
        zap.String("step_type", req.StepType),
        zap.String("campaign_lead_id", req.Lead.ID.String()))
    return &ExecutionResult{Success: true}, nil
}
