package service

import (
    "context"
    "testing"

    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/unclebandit/outreach-backend/internal/model"
    "github.com/unclebandit/outreach-backend/internal/repository"
)

func newCampaignService() (*CampaignService, *fakeCampaignRepo, *fakeLeadRepo) {
    campaigns := newFakeCampaignRepo()
    leads := newFakeLeadRepo()
    return &CampaignService{CampaignRepo: campaigns, LeadRepo: leads}, campaigns, leads
}

func TestCreateCampaignPersistsOrderedSteps(t *testing.T) {
    svc, campaigns, _ := newCampaignService()

    created, err := svc.CreateCampaign(context.Background(), uuid.New(), "q4 outreach", model.TypeOutbound,
        model.CampaignConfig{LeadsPerDay: 10, Filters: model.SearchFilters{Titles: []string{"CTO"}}},
        []StepInput{
            {StepType: model.StepLeadGeneration, Config: map[string]any{"titles": []any{"CTO"}}},
            {StepType: model.StepLinkedInConnect, Config: map[string]any{}},
            {StepType: model.StepLinkedInMessage, Config: map[string]any{"message": "hi"}},
        })
    require.NoError(t, err)
    assert.Equal(t, model.StatusDraft, created.Status)

    steps, err := campaigns.GetSteps(context.Background(), created.ID)
    require.NoError(t, err)
    require.Len(t, steps, 3)
    for i, step := range steps {
        assert.Equal(t, i, step.StepOrder)
    }
}

func TestCreateCampaignRejectsInvalidStep(t *testing.T) {
    svc, campaigns, _ := newCampaignService()

    _, err := svc.CreateCampaign(context.Background(), uuid.New(), "bad", model.TypeOutbound,
        model.CampaignConfig{},
        []StepInput{
            {StepType: model.StepEmail, Config: map[string]any{"subject": "no body"}},
        })
    require.Error(t, err)
    assert.Contains(t, err.Error(), "step 0")

    // Nothing persisted.
    _, total, err := campaigns.List(context.Background(), 0, 10, "")
    require.NoError(t, err)
    assert.Equal(t, 0, total)
}

func TestCreateCampaignRequiresName(t *testing.T) {
    svc, _, _ := newCampaignService()
    _, err := svc.CreateCampaign(context.Background(), uuid.New(), "", model.TypeOutbound, model.CampaignConfig{}, nil)
    assert.Error(t, err)
}

func TestStartCampaignTransitions(t *testing.T) {
    svc, campaigns, _ := newCampaignService()
    ctx := context.Background()

    campaign, err := svc.CreateCampaign(ctx, uuid.New(), "lifecycle", model.TypeOutbound, model.CampaignConfig{}, nil)
    require.NoError(t, err)

    require.NoError(t, svc.StartCampaign(ctx, campaign.ID))
    stored, err := campaigns.GetByID(ctx, campaign.ID)
    require.NoError(t, err)
    assert.Equal(t, model.StatusRunning, stored.Status)

    // Starting a running campaign is a no-op.
    require.NoError(t, svc.StartCampaign(ctx, campaign.ID))

    require.NoError(t, svc.PauseCampaign(ctx, campaign.ID))
    require.NoError(t, svc.StartCampaign(ctx, campaign.ID))

    require.NoError(t, svc.StopCampaign(ctx, campaign.ID))
    assert.Error(t, svc.StartCampaign(ctx, campaign.ID))
}

func TestResetErrorOnlyFromErrorState(t *testing.T) {
    svc, campaigns, _ := newCampaignService()
    ctx := context.Background()

    campaign, err := svc.CreateCampaign(ctx, uuid.New(), "resettable", model.TypeOutbound, model.CampaignConfig{}, nil)
    require.NoError(t, err)

    assert.Error(t, svc.ResetError(ctx, campaign.ID))

    require.NoError(t, campaigns.UpdateExecutionState(ctx, campaign.ID, repository.ExecutionUpdate{
        State:  model.ExecutionError,
        Reason: "lead generation: boom",
    }))

    require.NoError(t, svc.ResetError(ctx, campaign.ID))
    stored, err := campaigns.GetByID(ctx, campaign.ID)
    require.NoError(t, err)
    assert.Equal(t, model.ExecutionActive, stored.ExecutionState)
    assert.Equal(t, "manually reset", stored.LastExecutionReason)
}

func TestUploadLeadsInboundOnly(t *testing.T) {
    svc, _, _ := newCampaignService()
    ctx := context.Background()

    outbound, err := svc.CreateCampaign(ctx, uuid.New(), "outbound", model.TypeOutbound, model.CampaignConfig{}, nil)
    require.NoError(t, err)

    _, err = svc.UploadLeads(ctx, outbound.ID, []LeadUpload{{SourceID: "u-1"}})
    assert.Error(t, err)
}

func TestUploadLeadsSkipsDuplicates(t *testing.T) {
    svc, _, leads := newCampaignService()
    ctx := context.Background()

    campaign, err := svc.CreateCampaign(ctx, uuid.New(), "inbound", model.TypeInbound, model.CampaignConfig{}, nil)
    require.NoError(t, err)

    added, err := svc.UploadLeads(ctx, campaign.ID, []LeadUpload{
        {SourceID: "u-1", FirstName: "Ada"},
        {SourceID: "u-2", FirstName: "Grace"},
        {SourceID: "u-1", FirstName: "Ada again"},
        {SourceID: ""},
    })
    require.NoError(t, err)
    assert.Equal(t, 2, added)

    attached, err := leads.GetEligibleLeads(ctx, campaign.ID)
    require.NoError(t, err)
    require.Len(t, attached, 2)
    for _, cl := range attached {
        // Uploaded leads never carry a snapshot.
        assert.Nil(t, cl.LeadData)
    }
}

func TestListCampaignsPagination(t *testing.T) {
    svc, _, _ := newCampaignService()
    ctx := context.Background()

    for i := 0; i < 5; i++ {
        _, err := svc.CreateCampaign(ctx, uuid.New(), "campaign", model.TypeOutbound, model.CampaignConfig{}, nil)
        require.NoError(t, err)
    }

    campaigns, pagination, err := svc.ListCampaigns(ctx, 1, 2, "")
    require.NoError(t, err)
    assert.Len(t, campaigns, 2)
    assert.Equal(t, 5, pagination["total_count"])
    assert.Equal(t, 3, pagination["total_pages"])

    campaigns, _, err = svc.ListCampaigns(ctx, 3, 2, "")
    require.NoError(t, err)
    assert.Len(t, campaigns, 1)
}
