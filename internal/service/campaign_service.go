// internal/service/campaign_service.go
package service

import (
    "context"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/unclebandit/outreach-backend/internal/model"
    "github.com/unclebandit/outreach-backend/internal/repository"
)

// CampaignService backs the HTTP layer: campaign authoring and the
// user-controlled status transitions. Execution-state transitions live in
// the campaign processor, never here.
type CampaignService struct {
    CampaignRepo repository.CampaignRepositoryInterface
    LeadRepo     repository.LeadRepositoryInterface
}

// StepInput is one step of a campaign being created.
type StepInput struct {
    StepType string         `json:"step_type"`
    Config   map[string]any `json:"config"`
}

// CampaignDetails is a campaign plus its lead stats.
type CampaignDetails struct {
    ID                  uuid.UUID            `json:"id"`
    Name                string               `json:"name"`
    Type                model.CampaignType   `json:"type"`
    Status              model.CampaignStatus `json:"status"`
    ExecutionState      model.ExecutionState `json:"execution_state"`
    NextRunAt           *time.Time           `json:"next_run_at,omitempty"`
    LastExecutionReason string               `json:"last_execution_reason,omitempty"`
    Config              model.CampaignConfig `json:"config"`
    CreatedAt           time.Time            `json:"created_at"`
    UpdatedAt           *time.Time           `json:"updated_at,omitempty"`
    Stats               map[string]int       `json:"stats"`
}

// CreateCampaign validates every step up front and persists the campaign as
// a draft with its ordered steps.
func (s *CampaignService) CreateCampaign(ctx context.Context, tenantID uuid.UUID, name string, campaignType model.CampaignType, cfg model.CampaignConfig, steps []StepInput) (*model.Campaign, error) {
    if name == "" {
        return nil, fmt.Errorf("campaign name is required")
    }

    for i, step := range steps {
        if v := ValidateStep(step.StepType, step.Config); !v.Valid {
            return nil, fmt.Errorf("step %d (%s): %s", i, step.StepType, v.Error)
        }
    }

    c := &model.Campaign{
        TenantID: tenantID,
        Name:     name,
        Type:     campaignType,
        Status:   model.StatusDraft,
        Config:   cfg,
    }
    if err := s.CampaignRepo.Create(ctx, c); err != nil {
        return nil, err
    }

    for i, step := range steps {
        cs := &model.CampaignStep{
            CampaignID: c.ID,
            StepOrder:  i,
            StepType:   step.StepType,
            Config:     step.Config,
        }
        if err := s.CampaignRepo.CreateStep(ctx, cs); err != nil {
            return nil, err
        }
    }

    return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    ptrs, total, err := s.CampaignRepo.List(ctx, offset, pageSize, status)
    if err != nil {
        return nil, nil, err
    }

    campaigns := make([]model.Campaign, len(ptrs))
    for i, c := range ptrs {
        campaigns[i] = *c
    }

    totalPages := (total + pageSize - 1) / pageSize
    pagination := map[string]int{
        "page":        page,
        "page_size":   pageSize,
        "total_count": total,
        "total_pages": totalPages,
    }

    return campaigns, pagination, nil
}

// GetCampaignDetailsWithStats fetches a campaign and its lead stats.
func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, id uuid.UUID) (*CampaignDetails, error) {
    campaign, err := s.CampaignRepo.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }

    stats, err := s.LeadRepo.GetCampaignStats(ctx, id)
    if err != nil {
        return nil, err
    }

    return &CampaignDetails{
        ID:                  campaign.ID,
        Name:                campaign.Name,
        Type:                campaign.Type,
        Status:              campaign.Status,
        ExecutionState:      campaign.ExecutionState,
        NextRunAt:           campaign.NextRunAt,
        LastExecutionReason: campaign.LastExecutionReason,
        Config:              campaign.Config,
        CreatedAt:           campaign.CreatedAt,
        UpdatedAt:           campaign.UpdatedAt,
        Stats:               stats,
    }, nil
}

// StartCampaign moves a draft or paused campaign into the scheduler's view.
func (s *CampaignService) StartCampaign(ctx context.Context, id uuid.UUID) error {
    campaign, err := s.CampaignRepo.GetByID(ctx, id)
    if err != nil {
        return err
    }
    switch campaign.Status {
    case model.StatusDraft, model.StatusPaused:
        return s.CampaignRepo.UpdateStatus(ctx, id, model.StatusRunning)
    case model.StatusRunning:
        return nil
    }
    return fmt.Errorf("campaign cannot be started from status %s", campaign.Status)
}

// PauseCampaign takes the campaign out of scheduling. An in-flight run
// completes; the pause takes effect on the next tick.
func (s *CampaignService) PauseCampaign(ctx context.Context, id uuid.UUID) error {
    return s.CampaignRepo.UpdateStatus(ctx, id, model.StatusPaused)
}

// StopCampaign ends the campaign permanently.
func (s *CampaignService) StopCampaign(ctx context.Context, id uuid.UUID) error {
    return s.CampaignRepo.UpdateStatus(ctx, id, model.StatusStopped)
}

// ResetError clears the error execution state after someone fixed the
// underlying problem. This is the only way out of the error state.
func (s *CampaignService) ResetError(ctx context.Context, id uuid.UUID) error {
    campaign, err := s.CampaignRepo.GetByID(ctx, id)
    if err != nil {
        return err
    }
    if campaign.ExecutionState != model.ExecutionError {
        return fmt.Errorf("campaign is not in error state")
    }
    return s.CampaignRepo.UpdateExecutionState(ctx, id, repository.ExecutionUpdate{
        State:  model.ExecutionActive,
        Reason: "manually reset",
    })
}

// LeadUpload is one inbound lead provided by the user.
type LeadUpload struct {
    SourceID  string `json:"source_id"`
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
    Email     string `json:"email"`
    Phone     string `json:"phone"`
}

// UploadLeads attaches user-provided leads to an inbound campaign. Uploaded
// leads carry no snapshot, which keeps them out of outbound processing.
// Duplicates against anything the tenant has seen are silently skipped.
func (s *CampaignService) UploadLeads(ctx context.Context, campaignID uuid.UUID, uploads []LeadUpload) (int, error) {
    campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
    if err != nil {
        return 0, err
    }
    if campaign.Type != model.TypeInbound {
        return 0, fmt.Errorf("leads can only be uploaded to inbound campaigns")
    }

    added := 0
    for _, up := range uploads {
        if up.SourceID == "" {
            continue
        }
        lead := &model.Lead{
            TenantID:  campaign.TenantID,
            Source:    "upload",
            SourceID:  up.SourceID,
            FirstName: up.FirstName,
            LastName:  up.LastName,
            Email:     up.Email,
        }
        cl := &model.CampaignLead{
            CampaignID: campaignID,
            Status:     model.LeadPending,
        }
        inserted, err := s.LeadRepo.InsertLeadWithCampaign(ctx, lead, cl)
        if err != nil {
            return added, err
        }
        if !inserted {
            continue
        }
        added++
    }
    return added, nil
}
