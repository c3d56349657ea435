// internal/service/workflow.go
package service

import (
    "context"
    "fmt"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/unclebandit/outreach-backend/internal/config"
    "github.com/unclebandit/outreach-backend/internal/model"
    "github.com/unclebandit/outreach-backend/internal/repository"
)

// WorkflowProcessor advances one lead through its campaign's step sequence.
// It executes at most one step per call: external channels are rate limited,
// so pacing one step per scheduler tick is deliberate.
type WorkflowProcessor struct {
    Leads    repository.LeadRepositoryInterface
    Recorder *ActivityRecorder
    Registry *Registry
    Cfg      *config.Config
    Log      *zap.Logger

    nowFn func() time.Time
}

func NewWorkflowProcessor(leads repository.LeadRepositoryInterface, registry *Registry, cfg *config.Config, log *zap.Logger) *WorkflowProcessor {
    return &WorkflowProcessor{
        Leads:    leads,
        Recorder: &ActivityRecorder{Leads: leads},
        Registry: registry,
        Cfg:      cfg,
        Log:      log,
        nowFn:    time.Now,
    }
}

// Advance finds the lead's resume point in steps, applies delay/condition
// gating and dispatches executable steps. steps must be the ordered workflow
// steps (no lead_generation, start or end markers).
func (p *WorkflowProcessor) Advance(ctx context.Context, campaign *model.Campaign, steps []*model.CampaignStep, lead *model.CampaignLead) error {
    if len(steps) == 0 {
        return nil
    }

    last, err := p.Leads.GetLatestSuccessfulActivity(ctx, lead.ID)
    if err != nil {
        return fmt.Errorf("load latest activity: %w", err)
    }

    idx := 0
    if last != nil {
        // Resume immediately after the step that produced the latest
        // terminal success. If that step is no longer in the list, fall back
        // to the top; the replay guard below skips anything already done.
        if at := stepIndex(steps, last); at >= 0 {
            idx = at + 1
        }
    }

    // Replay guard: two ticks can compute the same resume point, so skip
    // every step that already has a terminal success before executing.
    for idx < len(steps) {
        done, err := p.Leads.HasSuccessfulActivity(ctx, lead.ID, steps[idx].ID)
        if err != nil {
            return fmt.Errorf("check step activity: %w", err)
        }
        if !done {
            break
        }
        idx++
    }

    if idx >= len(steps) {
        return p.Leads.UpdateLeadStatus(ctx, lead.ID, model.LeadCompleted)
    }

    step := steps[idx]

    if v := ValidateStep(step.StepType, step.Config); !v.Valid {
        msg := v.Error
        if len(v.MissingFields) > 0 {
            msg = fmt.Sprintf("%s (missing: %s)", v.Error, strings.Join(v.MissingFields, ", "))
        }
        if _, err := p.Recorder.Record(ctx, lead, step, model.ActivityFailed, msg); err != nil {
            return fmt.Errorf("record validation failure: %w", err)
        }
        // Terminal: the user must fix the step; nothing re-attempts this lead.
        return p.Leads.UpdateLeadStatus(ctx, lead.ID, model.LeadStopped)
    }

    switch step.StepType {
    case model.StepDelay:
        return p.advanceDelay(ctx, lead, step, last)
    case model.StepCondition:
        return p.advanceCondition(ctx, lead, step)
    default:
        return p.executeStep(ctx, campaign, lead, step)
    }
}

func (p *WorkflowProcessor) advanceDelay(ctx context.Context, lead *model.CampaignLead, step *model.CampaignStep, last *model.LeadActivity) error {
    since := lead.CreatedAt
    if last != nil {
        since = last.CreatedAt
    }

    if p.nowFn().Sub(since) < delayDuration(step.Config) {
        // Not elapsed: leave the lead completely untouched this tick.
        return nil
    }

    _, err := p.Recorder.Record(ctx, lead, step, model.ActivityDelivered, "")
    return err
}

func (p *WorkflowProcessor) advanceCondition(ctx context.Context, lead *model.CampaignLead, step *model.CampaignStep) error {
    condition := configString(step.Config, "condition")

    lookback := p.Cfg.ConditionLookback
    if lookback <= 0 {
        lookback = 10
    }
    recent, err := p.Leads.GetRecentActivities(ctx, lead.ID, lookback)
    if err != nil {
        return fmt.Errorf("load recent activities: %w", err)
    }

    met := false
    for _, a := range recent {
        if string(a.Status) == condition {
            met = true
            break
        }
    }

    if !met {
        if _, err := p.Recorder.Record(ctx, lead, step, model.ActivityFailed, fmt.Sprintf("condition %q not met", condition)); err != nil {
            return err
        }
        return p.Leads.UpdateLeadStatus(ctx, lead.ID, model.LeadStopped)
    }

    _, err = p.Recorder.Record(ctx, lead, step, model.ActivityDelivered, "")
    return err
}

func (p *WorkflowProcessor) executeStep(ctx context.Context, campaign *model.Campaign, lead *model.CampaignLead, step *model.CampaignStep) error {
    attempt, err := p.Recorder.Record(ctx, lead, step, model.ActivityPending, "")
    if err != nil {
        return fmt.Errorf("record attempt: %w", err)
    }

    result, err := p.Registry.Execute(ctx, ExecutionRequest{
        StepType: step.StepType,
        Config:   step.Config,
        Lead:     lead,
        TenantID: campaign.TenantID,
    })
    if err != nil {
        if ferr := p.Recorder.Finalize(ctx, attempt, model.ActivityError, err.Error()); ferr != nil {
            return ferr
        }
        return nil
    }

    if !result.Success {
        p.Log.Warn("step dispatch failed",
            zap.String("campaign_lead_id", lead.ID.String()),
            zap.String("step_type", step.StepType),
            zap.String("error", result.Error))
        if err := p.Recorder.Finalize(ctx, attempt, model.ActivityError, result.Error); err != nil {
            return err
        }
        return nil
    }

    if err := p.Recorder.Finalize(ctx, attempt, model.ActivityDelivered, ""); err != nil {
        return err
    }

    if lead.Status == model.LeadPending {
        lead.Status = model.LeadActive
        return p.Leads.UpdateLeadStatus(ctx, lead.ID, model.LeadActive)
    }
    return nil
}

func stepIndex(steps []*model.CampaignStep, activity *model.LeadActivity) int {
    for i, s := range steps {
        if s.ID == activity.StepID {
            return i
        }
    }
    return -1
}
