// internal/service/campaign_processor.go
package service

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/unclebandit/outreach-backend/internal/config"
    appErrors "github.com/unclebandit/outreach-backend/internal/errors"
    "github.com/unclebandit/outreach-backend/internal/model"
    "github.com/unclebandit/outreach-backend/internal/queue"
    "github.com/unclebandit/outreach-backend/internal/repository"
)

// RunResult summarizes one campaign run.
type RunResult struct {
    Success   bool
    Skipped   bool
    Reason    string
    LeadCount int
}

// CampaignProcessor orchestrates one campaign run: it owns every
// execution-state transition, triggers lead generation when due and drives
// the workflow processor over each eligible lead, strictly sequentially.
type CampaignProcessor struct {
    Campaigns repository.CampaignRepositoryInterface
    Leads     repository.LeadRepositoryInterface
    LeadGen   *LeadGenEngine
    Workflow  *WorkflowProcessor
    Publisher queue.Publisher
    Cfg       *config.Config
    Log       *zap.Logger

    nowFn func() time.Time
}

func NewCampaignProcessor(campaigns repository.CampaignRepositoryInterface, leads repository.LeadRepositoryInterface, leadGen *LeadGenEngine, workflow *WorkflowProcessor, publisher queue.Publisher, cfg *config.Config, log *zap.Logger) *CampaignProcessor {
    return &CampaignProcessor{
        Campaigns: campaigns,
        Leads:     leads,
        LeadGen:   leadGen,
        Workflow:  workflow,
        Publisher: publisher,
        Cfg:       cfg,
        Log:       log,
        nowFn:     time.Now,
    }
}

// Run processes one campaign for one tick.
func (cp *CampaignProcessor) Run(ctx context.Context, campaignID uuid.UUID) (*RunResult, error) {
    campaign, err := cp.Campaigns.GetByID(ctx, campaignID)
    if err != nil {
        var notFound *appErrors.ErrCampaignNotFound
        if errors.As(err, &notFound) {
            return &RunResult{Skipped: true, Reason: "campaign not found"}, nil
        }
        return nil, err
    }

    if campaign.Status != model.StatusRunning {
        return &RunResult{Skipped: true, Reason: fmt.Sprintf("campaign status is %s", campaign.Status)}, nil
    }

    now := cp.nowFn()
    if result := cp.evaluateState(ctx, campaign, now); result != nil {
        return result, nil
    }

    steps, err := cp.Campaigns.GetSteps(ctx, campaign.ID)
    if err != nil {
        return cp.fail(ctx, campaign, "load steps", err)
    }
    if len(steps) == 0 {
        cp.persistReason(ctx, campaign, "no steps configured")
        return &RunResult{Skipped: true, Reason: "no steps configured"}, nil
    }

    var genResult *GenerationResult
    if genStep := findStep(steps, model.StepLeadGeneration); genStep != nil && campaign.Type != model.TypeInbound {
        genResult, err = cp.LeadGen.Generate(ctx, campaign, genStep)
        if err != nil {
            return cp.fail(ctx, campaign, "lead generation", err)
        }
    }

    leads, err := cp.Leads.GetEligibleLeads(ctx, campaign.ID)
    if err != nil {
        return cp.fail(ctx, campaign, "load eligible leads", err)
    }

    // Hard partition: outbound campaigns only touch generated leads (which
    // carry snapshot data), inbound ones only touch uploaded leads.
    eligible := leads[:0]
    for _, lead := range leads {
        generated := lead.LeadData != nil
        if (campaign.Type == model.TypeInbound) != generated {
            eligible = append(eligible, lead)
        }
    }

    workflowSteps := workflowSteps(steps)
    for _, lead := range eligible {
        if err := cp.Workflow.Advance(ctx, campaign, workflowSteps, lead); err != nil {
            // A broken lead must not stall the rest of the campaign.
            cp.Log.Error("workflow advance failed",
                zap.String("campaign_id", campaign.ID.String()),
                zap.String("campaign_lead_id", lead.ID.String()),
                zap.Error(err))
        }
    }

    cp.finishRun(ctx, campaign, genResult, len(eligible), now)
    cp.publishStats(ctx, campaign)

    return &RunResult{Success: true, LeadCount: len(eligible)}, nil
}

// evaluateState applies the execution state machine before a run. A non-nil
// result means this tick is skipped.
func (cp *CampaignProcessor) evaluateState(ctx context.Context, campaign *model.Campaign, now time.Time) *RunResult {
    switch campaign.ExecutionState {
    case model.ExecutionError:
        // No automatic recovery: someone must reset the campaign.
        reason := "execution halted: manual reset required"
        cp.persistReason(ctx, campaign, reason)
        return &RunResult{Skipped: true, Reason: reason}

    case model.ExecutionWaiting:
        retryInterval := time.Duration(cp.Cfg.LeadRetryIntervalHours) * time.Hour
        intervalPending := campaign.LastLeadCheckAt != nil && now.Before(campaign.LastLeadCheckAt.Add(retryInterval))
        nextRunPending := campaign.NextRunAt != nil && now.Before(*campaign.NextRunAt)
        if intervalPending || nextRunPending {
            reason := "waiting for leads: retry window not reached"
            cp.persistReason(ctx, campaign, reason)
            return &RunResult{Skipped: true, Reason: reason}
        }
        cp.transition(ctx, campaign, repository.ExecutionUpdate{
            State:  model.ExecutionActive,
            Reason: "lead retry window elapsed",
        })

    case model.ExecutionSleeping:
        if campaign.NextRunAt != nil && now.Before(*campaign.NextRunAt) {
            return &RunResult{Skipped: true, Reason: "sleeping until next day"}
        }
        cp.transition(ctx, campaign, repository.ExecutionUpdate{
            State:  model.ExecutionActive,
            Reason: "new day started",
        })
    }
    return nil
}

// finishRun decides the end-of-run transition. The sleep transition is
// deferred to here so the day's generated leads are pushed through the
// workflow before the campaign goes quiet.
func (cp *CampaignProcessor) finishRun(ctx context.Context, campaign *model.Campaign, genResult *GenerationResult, leadCount int, now time.Time) {
    switch {
    case genResult != nil && genResult.DailyLimitReached:
        next := nextMidnight(now)
        cp.transition(ctx, campaign, repository.ExecutionUpdate{
            State:           model.ExecutionSleeping,
            Reason:          fmt.Sprintf("daily lead quota reached (%d saved)", genResult.LeadsSaved),
            NextRunAt:       &next,
            LastLeadCheckAt: &now,
        })

    case genResult != nil && genResult.StateHint == model.ExecutionWaiting && leadCount == 0:
        cp.transition(ctx, campaign, repository.ExecutionUpdate{
            State:           model.ExecutionWaiting,
            Reason:          genResult.Reason,
            NextRunAt:       genResult.NextRunAt,
            LastLeadCheckAt: &now,
        })

    default:
        upd := repository.ExecutionUpdate{
            State:  model.ExecutionActive,
            Reason: fmt.Sprintf("processed %d leads", leadCount),
        }
        if genResult != nil {
            upd.LastLeadCheckAt = &now
        }
        cp.transition(ctx, campaign, upd)
    }
}

// fail moves the campaign to the error state. Transient infra failures
// deliberately do not auto-retry; masking an outage is worse than requiring
// a manual resume.
func (cp *CampaignProcessor) fail(ctx context.Context, campaign *model.Campaign, op string, err error) (*RunResult, error) {
    reason := fmt.Sprintf("%s: %v", op, err)
    cp.Log.Error("campaign run failed",
        zap.String("campaign_id", campaign.ID.String()),
        zap.String("op", op),
        zap.Error(err))
    cp.transition(ctx, campaign, repository.ExecutionUpdate{
        State:  model.ExecutionError,
        Reason: reason,
    })
    return &RunResult{Reason: reason}, nil
}

func (cp *CampaignProcessor) transition(ctx context.Context, campaign *model.Campaign, upd repository.ExecutionUpdate) {
    if err := cp.Campaigns.UpdateExecutionState(ctx, campaign.ID, upd); err != nil {
        cp.Log.Error("failed to persist execution state",
            zap.String("campaign_id", campaign.ID.String()),
            zap.String("state", string(upd.State)),
            zap.Error(err))
        return
    }
    campaign.ExecutionState = upd.State
    campaign.LastExecutionReason = upd.Reason
    campaign.NextRunAt = upd.NextRunAt
    if upd.LastLeadCheckAt != nil {
        campaign.LastLeadCheckAt = upd.LastLeadCheckAt
    }
}

// persistReason refreshes last_execution_reason without changing state.
func (cp *CampaignProcessor) persistReason(ctx context.Context, campaign *model.Campaign, reason string) {
    cp.transition(ctx, campaign, repository.ExecutionUpdate{
        State:     campaign.ExecutionState,
        Reason:    reason,
        NextRunAt: campaign.NextRunAt,
    })
}

// publishStats is fire-and-forget: event delivery never affects execution.
func (cp *CampaignProcessor) publishStats(ctx context.Context, campaign *model.Campaign) {
    stats, err := cp.Leads.GetCampaignStats(ctx, campaign.ID)
    if err != nil {
        cp.Log.Warn("failed to load campaign stats",
            zap.String("campaign_id", campaign.ID.String()),
            zap.Error(err))
        return
    }
    cp.Publisher.PublishStats(queue.StatsEvent{
        CampaignID: campaign.ID,
        TenantID:   campaign.TenantID,
        Stats:      stats,
        OccurredAt: cp.nowFn(),
    })
}

func findStep(steps []*model.CampaignStep, stepType string) *model.CampaignStep {
    for _, s := range steps {
        if s.StepType == stepType {
            return s
        }
    }
    return nil
}

// workflowSteps filters out lead_generation and the start/end markers.
func workflowSteps(steps []*model.CampaignStep) []*model.CampaignStep {
    out := make([]*model.CampaignStep, 0, len(steps))
    for _, s := range steps {
        switch s.StepType {
        case model.StepLeadGeneration, model.StepStart, model.StepEnd:
            continue
        }
        out = append(out, s)
    }
    return out
}

func nextMidnight(now time.Time) time.Time {
    return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}
