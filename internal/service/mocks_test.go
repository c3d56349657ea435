package service

import (
    "context"
    "fmt"
    "sort"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/unclebandit/outreach-backend/internal/config"
    appErrors "github.com/unclebandit/outreach-backend/internal/errors"
    "github.com/unclebandit/outreach-backend/internal/leadsource"
    "github.com/unclebandit/outreach-backend/internal/model"
    "github.com/unclebandit/outreach-backend/internal/repository"
)

func testConfig() *config.Config {
    return &config.Config{
        LeadRetryIntervalHours: 4,
        DailyRetryHour:         9,
        DailyRetryMinute:       0,
        LeadFetchPageSize:      100,
        MaxLeadPageAttempts:    10,
        ConditionLookback:      10,
        SchedulerTickInterval:  time.Minute,
        LeaseTTL:               time.Minute,
    }
}

// ====================== campaign repo fake ======================

type fakeCampaignRepo struct {
    mu        sync.Mutex
    campaigns map[uuid.UUID]*model.Campaign
    steps     map[uuid.UUID][]*model.CampaignStep
    getErr    map[uuid.UUID]error
}

func newFakeCampaignRepo() *fakeCampaignRepo {
    return &fakeCampaignRepo{
        campaigns: make(map[uuid.UUID]*model.Campaign),
        steps:     make(map[uuid.UUID][]*model.CampaignStep),
        getErr:    make(map[uuid.UUID]error),
    }
}

func (r *fakeCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if c.ID == uuid.Nil {
        c.ID = uuid.New()
    }
    stored := *c
    r.campaigns[c.ID] = &stored
    return nil
}

func (r *fakeCampaignRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Campaign, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    if err := r.getErr[id]; err != nil {
        return nil, err
    }
    c, ok := r.campaigns[id]
    if !ok {
        return nil, appErrors.NewCampaignNotFound(id)
    }
    copy := *c
    return &copy, nil
}

func (r *fakeCampaignRepo) List(_ context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    var out []*model.Campaign
    for _, c := range r.campaigns {
        if status == "" || string(c.Status) == status {
            copy := *c
            out = append(out, &copy)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
    total := len(out)
    if offset > total {
        offset = total
    }
    end := offset + limit
    if end > total {
        end = total
    }
    return out[offset:end], total, nil
}

func (r *fakeCampaignRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.CampaignStatus) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if c, ok := r.campaigns[id]; ok {
        c.Status = status
    }
    return nil
}

func (r *fakeCampaignRepo) UpdateConfig(_ context.Context, id uuid.UUID, cfg model.CampaignConfig) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if c, ok := r.campaigns[id]; ok {
        c.Config = cfg
    }
    return nil
}

func (r *fakeCampaignRepo) GetDueCampaigns(_ context.Context, now time.Time) ([]*model.Campaign, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    var due []*model.Campaign
    for _, c := range r.campaigns {
        if c.Status != model.StatusRunning {
            continue
        }
        switch c.ExecutionState {
        case model.ExecutionActive:
        case model.ExecutionWaiting, model.ExecutionSleeping:
            if c.NextRunAt == nil || c.NextRunAt.After(now) {
                continue
            }
        default:
            continue
        }
        copy := *c
        due = append(due, &copy)
    }
    return due, nil
}

func (r *fakeCampaignRepo) UpdateExecutionState(_ context.Context, id uuid.UUID, upd repository.ExecutionUpdate) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    c, ok := r.campaigns[id]
    if !ok {
        return fmt.Errorf("campaign %s not found", id)
    }
    c.ExecutionState = upd.State
    c.LastExecutionReason = upd.Reason
    c.NextRunAt = upd.NextRunAt
    if upd.LastLeadCheckAt != nil {
        c.LastLeadCheckAt = upd.LastLeadCheckAt
    }
    return nil
}

func (r *fakeCampaignRepo) CreateStep(_ context.Context, s *model.CampaignStep) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if s.ID == uuid.Nil {
        s.ID = uuid.New()
    }
    r.steps[s.CampaignID] = append(r.steps[s.CampaignID], s)
    return nil
}

func (r *fakeCampaignRepo) GetSteps(_ context.Context, campaignID uuid.UUID) ([]*model.CampaignStep, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    steps := append([]*model.CampaignStep{}, r.steps[campaignID]...)
    sort.Slice(steps, func(i, j int) bool { return steps[i].StepOrder < steps[j].StepOrder })
    return steps, nil
}

var _ repository.CampaignRepositoryInterface = (*fakeCampaignRepo)(nil)

// ====================== lead repo fake ======================

type fakeLeadRepo struct {
    mu            sync.Mutex
    leadsBySource map[string]*model.Lead // tenant|source_id
    campaignLeads []*model.CampaignLead
    activities    []*model.LeadActivity
}

func newFakeLeadRepo() *fakeLeadRepo {
    return &fakeLeadRepo{leadsBySource: make(map[string]*model.Lead)}
}

func sourceKey(tenantID uuid.UUID, sourceID string) string {
    return tenantID.String() + "|" + sourceID
}

func (r *fakeLeadRepo) GetUsedSourceIDs(_ context.Context, tenantID uuid.UUID) (map[string]struct{}, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    used := make(map[string]struct{})
    for _, lead := range r.leadsBySource {
        if lead.TenantID == tenantID {
            used[lead.SourceID] = struct{}{}
        }
    }
    return used, nil
}

func (r *fakeLeadRepo) InsertLeadIfAbsent(_ context.Context, lead *model.Lead) (bool, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    key := sourceKey(lead.TenantID, lead.SourceID)
    if _, exists := r.leadsBySource[key]; exists {
        return false, nil
    }
    if lead.ID == uuid.Nil {
        lead.ID = uuid.New()
    }
    lead.CreatedAt = time.Now()
    stored := *lead
    r.leadsBySource[key] = &stored
    return true, nil
}

func (r *fakeLeadRepo) InsertLeadWithCampaign(ctx context.Context, lead *model.Lead, cl *model.CampaignLead) (bool, error) {
    inserted, err := r.InsertLeadIfAbsent(ctx, lead)
    if err != nil || !inserted {
        return false, err
    }
    cl.LeadID = lead.ID
    if err := r.CreateCampaignLead(ctx, cl); err != nil {
        return false, err
    }
    return true, nil
}

func (r *fakeLeadRepo) CreateCampaignLead(_ context.Context, cl *model.CampaignLead) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    for _, existing := range r.campaignLeads {
        if existing.CampaignID == cl.CampaignID && existing.LeadID == cl.LeadID {
            return nil
        }
    }
    if cl.ID == uuid.Nil {
        cl.ID = uuid.New()
    }
    if cl.Status == "" {
        cl.Status = model.LeadPending
    }
    cl.CreatedAt = time.Now()
    stored := *cl
    r.campaignLeads = append(r.campaignLeads, &stored)
    return nil
}

func (r *fakeLeadRepo) GetEligibleLeads(_ context.Context, campaignID uuid.UUID) ([]*model.CampaignLead, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    var out []*model.CampaignLead
    for _, cl := range r.campaignLeads {
        if cl.CampaignID == campaignID && (cl.Status == model.LeadPending || cl.Status == model.LeadActive) {
            copy := *cl
            out = append(out, &copy)
        }
    }
    return out, nil
}

func (r *fakeLeadRepo) UpdateLeadStatus(_ context.Context, id uuid.UUID, status model.LeadStatus) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    for _, cl := range r.campaignLeads {
        if cl.ID == id {
            cl.Status = status
            return nil
        }
    }
    return fmt.Errorf("campaign lead %s not found", id)
}

func (r *fakeLeadRepo) GetCampaignStats(_ context.Context, campaignID uuid.UUID) (map[string]int, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    stats := map[string]int{"pending": 0, "active": 0, "completed": 0, "stopped": 0}
    for _, cl := range r.campaignLeads {
        if cl.CampaignID == campaignID {
            stats[string(cl.Status)]++
        }
    }
    return stats, nil
}

func (r *fakeLeadRepo) GetLatestSuccessfulActivity(_ context.Context, campaignLeadID uuid.UUID) (*model.LeadActivity, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    for i := len(r.activities) - 1; i >= 0; i-- {
        a := r.activities[i]
        if a.CampaignLeadID == campaignLeadID && a.Status.IsTerminalSuccess() {
            copy := *a
            return &copy, nil
        }
    }
    return nil, nil
}

func (r *fakeLeadRepo) HasSuccessfulActivity(_ context.Context, campaignLeadID, stepID uuid.UUID) (bool, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    for _, a := range r.activities {
        if a.CampaignLeadID == campaignLeadID && a.StepID == stepID && a.Status.IsTerminalSuccess() {
            return true, nil
        }
    }
    return false, nil
}

func (r *fakeLeadRepo) GetRecentActivities(_ context.Context, campaignLeadID uuid.UUID, limit int) ([]*model.LeadActivity, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    var out []*model.LeadActivity
    for i := len(r.activities) - 1; i >= 0 && len(out) < limit; i-- {
        if r.activities[i].CampaignLeadID == campaignLeadID {
            copy := *r.activities[i]
            out = append(out, &copy)
        }
    }
    return out, nil
}

func (r *fakeLeadRepo) AppendActivity(_ context.Context, a *model.LeadActivity) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if a.ID == uuid.Nil {
        a.ID = uuid.New()
    }
    if a.CreatedAt.IsZero() {
        a.CreatedAt = time.Now()
    }
    stored := *a
    r.activities = append(r.activities, &stored)
    return nil
}

func (r *fakeLeadRepo) FinalizeActivity(_ context.Context, id uuid.UUID, status model.ActivityStatus, errorMessage string) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    for _, a := range r.activities {
        if a.ID == id {
            a.Status = status
            a.ErrorMessage = errorMessage
            return nil
        }
    }
    return fmt.Errorf("activity %s not found", id)
}

// activitiesFor returns all activities for a lead, oldest first.
func (r *fakeLeadRepo) activitiesFor(campaignLeadID uuid.UUID) []*model.LeadActivity {
    r.mu.Lock()
    defer r.mu.Unlock()
    var out []*model.LeadActivity
    for _, a := range r.activities {
        if a.CampaignLeadID == campaignLeadID {
            copy := *a
            out = append(out, &copy)
        }
    }
    return out
}

func (r *fakeLeadRepo) leadStatus(campaignLeadID uuid.UUID) model.LeadStatus {
    r.mu.Lock()
    defer r.mu.Unlock()
    for _, cl := range r.campaignLeads {
        if cl.ID == campaignLeadID {
            return cl.Status
        }
    }
    return ""
}

var _ repository.LeadRepositoryInterface = (*fakeLeadRepo)(nil)

// ====================== lead source fake ======================

type fakeSource struct {
    mu           sync.Mutex
    leads        []leadsource.SourceLead
    err          error
    accessDenied bool
    searchCalls  int
}

func (f *fakeSource) Search(_ context.Context, _ model.SearchFilters, page, pageSize int, _ []string) (*leadsource.SearchResult, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.searchCalls++
    if f.err != nil {
        return nil, f.err
    }
    if f.accessDenied {
        return &leadsource.SearchResult{Source: "fake", AccessDenied: true}, nil
    }
    start := (page - 1) * pageSize
    if start >= len(f.leads) {
        return &leadsource.SearchResult{Source: "fake"}, nil
    }
    end := start + pageSize
    if end > len(f.leads) {
        end = len(f.leads)
    }
    return &leadsource.SearchResult{Leads: f.leads[start:end], Source: "fake"}, nil
}

func sourceLeads(n int) []leadsource.SourceLead {
    out := make([]leadsource.SourceLead, n)
    for i := range out {
        out[i] = leadsource.SourceLead{
            SourceID:  fmt.Sprintf("src-%03d", i),
            FirstName: fmt.Sprintf("Lead%d", i),
            Title:     "Founder",
        }
    }
    return out
}

// ====================== executor stub ======================

type stubExecutor struct {
    mu     sync.Mutex
    calls  []ExecutionRequest
    result *ExecutionResult
    err    error
}

func (s *stubExecutor) Execute(_ context.Context, req ExecutionRequest) (*ExecutionResult, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.calls = append(s.calls, req)
    if s.err != nil {
        return nil, s.err
    }
    if s.result != nil {
        return s.result, nil
    }
    return &ExecutionResult{Success: true}, nil
}

func (s *stubExecutor) callCount() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.calls)
}
