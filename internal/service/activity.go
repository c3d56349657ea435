// internal/service/activity.go
package service

import (
    "context"

    "github.com/unclebandit/outreach-backend/internal/model"
    "github.com/unclebandit/outreach-backend/internal/repository"
)

// ActivityRecorder writes the append-only execution log. One row is created
// per (lead, step) attempt; only that row's status/error is ever updated.
type ActivityRecorder struct {
    Leads repository.LeadRepositoryInterface
}

// Record appends a new activity row for an attempt and returns it.
func (ar *ActivityRecorder) Record(ctx context.Context, lead *model.CampaignLead, step *model.CampaignStep, status model.ActivityStatus, errorMessage string) (*model.LeadActivity, error) {
    a := &model.LeadActivity{
        CampaignLeadID: lead.ID,
        StepID:         step.ID,
        StepType:       step.StepType,
        Status:         status,
        ErrorMessage:   errorMessage,
    }
    if err := ar.Leads.AppendActivity(ctx, a); err != nil {
        return nil, err
    }
    return a, nil
}

// Finalize settles the in-flight attempt row with its terminal status.
func (ar *ActivityRecorder) Finalize(ctx context.Context, a *model.LeadActivity, status model.ActivityStatus, errorMessage string) error {
    a.Status = status
    a.ErrorMessage = errorMessage
    return ar.Leads.FinalizeActivity(ctx, a.ID, status, errorMessage)
}
