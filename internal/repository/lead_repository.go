package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "time"

    "github.com/google/uuid"

    "github.com/unclebandit/outreach-backend/internal/model"
)

// LeadRepositoryInterface defines lead, campaign-lead and activity access
// used by the execution engine.
type LeadRepositoryInterface interface {
    // Tenant-wide dedup
    GetUsedSourceIDs(ctx context.Context, tenantID uuid.UUID) (map[string]struct{}, error)
    // InsertLeadIfAbsent persists the lead unless (tenant_id, source_id)
    // already exists. Returns whether a row was inserted; a conflict is not
    // an error.
    InsertLeadIfAbsent(ctx context.Context, lead *model.Lead) (bool, error)
    // InsertLeadWithCampaign persists a lead and its campaign attachment in
    // one transaction. Dedup semantics match InsertLeadIfAbsent: on a
    // (tenant_id, source_id) conflict nothing is written and false is
    // returned.
    InsertLeadWithCampaign(ctx context.Context, lead *model.Lead, cl *model.CampaignLead) (bool, error)

    // Campaign leads
    CreateCampaignLead(ctx context.Context, cl *model.CampaignLead) error
    GetEligibleLeads(ctx context.Context, campaignID uuid.UUID) ([]*model.CampaignLead, error)
    UpdateLeadStatus(ctx context.Context, id uuid.UUID, status model.LeadStatus) error
    GetCampaignStats(ctx context.Context, campaignID uuid.UUID) (map[string]int, error)

    // Activity log
    GetLatestSuccessfulActivity(ctx context.Context, campaignLeadID uuid.UUID) (*model.LeadActivity, error)
    HasSuccessfulActivity(ctx context.Context, campaignLeadID, stepID uuid.UUID) (bool, error)
    GetRecentActivities(ctx context.Context, campaignLeadID uuid.UUID, limit int) ([]*model.LeadActivity, error)
    AppendActivity(ctx context.Context, a *model.LeadActivity) error
    FinalizeActivity(ctx context.Context, id uuid.UUID, status model.ActivityStatus, errorMessage string) error
}

type LeadRepository struct {
    DB *sql.DB
}

// ====================== Leads ======================

func (r *LeadRepository) GetUsedSourceIDs(ctx context.Context, tenantID uuid.UUID) (map[string]struct{}, error) {
    rows, err := r.DB.QueryContext(ctx,
        `SELECT source_id FROM leads WHERE tenant_id=$1`, tenantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    used := make(map[string]struct{})
    for rows.Next() {
        var id string
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        used[id] = struct{}{}
    }
    return used, rows.Err()
}

const insertLeadQuery = `
        INSERT INTO leads (id, tenant_id, source, source_id, first_name, last_name,
                           title, company, location, email, linkedin_url, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (tenant_id, source_id) DO NOTHING
    `

const insertCampaignLeadQuery = `
        INSERT INTO campaign_leads (id, campaign_id, lead_id, status, lead_data, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (campaign_id, lead_id) DO NOTHING
    `

func (r *LeadRepository) InsertLeadIfAbsent(ctx context.Context, lead *model.Lead) (bool, error) {
    if lead.ID == uuid.Nil {
        lead.ID = uuid.New()
    }
    lead.CreatedAt = time.Now()

    res, err := r.DB.ExecContext(ctx, insertLeadQuery,
        lead.ID, lead.TenantID, lead.Source, lead.SourceID,
        lead.FirstName, lead.LastName, lead.Title, lead.Company,
        lead.Location, lead.Email, lead.LinkedInURL, lead.CreatedAt)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// InsertLeadWithCampaign writes the lead row and its campaign_leads
// attachment atomically. Without the transaction, a crash between the two
// inserts would leave a tenant-level lead that dedup excludes forever without
// it ever entering a campaign.
func (r *LeadRepository) InsertLeadWithCampaign(ctx context.Context, lead *model.Lead, cl *model.CampaignLead) (bool, error) {
    if lead.ID == uuid.Nil {
        lead.ID = uuid.New()
    }
    lead.CreatedAt = time.Now()

    if cl.ID == uuid.Nil {
        cl.ID = uuid.New()
    }
    if cl.Status == "" {
        cl.Status = model.LeadPending
    }
    cl.LeadID = lead.ID
    now := time.Now()
    cl.CreatedAt = now
    cl.UpdatedAt = now

    var data []byte
    if cl.LeadData != nil {
        var err error
        data, err = json.Marshal(cl.LeadData)
        if err != nil {
            return false, err
        }
    }

    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return false, err
    }
    defer tx.Rollback()

    res, err := tx.ExecContext(ctx, insertLeadQuery,
        lead.ID, lead.TenantID, lead.Source, lead.SourceID,
        lead.FirstName, lead.LastName, lead.Title, lead.Company,
        lead.Location, lead.Email, lead.LinkedInURL, lead.CreatedAt)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    if n == 0 {
        // Tenant already has this source id; nothing to attach.
        return false, nil
    }

    if _, err := tx.ExecContext(ctx, insertCampaignLeadQuery,
        cl.ID, cl.CampaignID, cl.LeadID, cl.Status, data, cl.CreatedAt, cl.UpdatedAt); err != nil {
        return false, err
    }

    if err := tx.Commit(); err != nil {
        return false, err
    }
    return true, nil
}

// ====================== Campaign leads ======================

func (r *LeadRepository) CreateCampaignLead(ctx context.Context, cl *model.CampaignLead) error {
    if cl.ID == uuid.Nil {
        cl.ID = uuid.New()
    }
    if cl.Status == "" {
        cl.Status = model.LeadPending
    }
    now := time.Now()
    cl.CreatedAt = now
    cl.UpdatedAt = now

    var data []byte
    if cl.LeadData != nil {
        var err error
        data, err = json.Marshal(cl.LeadData)
        if err != nil {
            return err
        }
    }

    _, err := r.DB.ExecContext(ctx, insertCampaignLeadQuery,
        cl.ID, cl.CampaignID, cl.LeadID, cl.Status, data, cl.CreatedAt, cl.UpdatedAt)
    return err
}

// GetEligibleLeads returns leads still moving through the workflow, oldest
// first so pacing is fair.
func (r *LeadRepository) GetEligibleLeads(ctx context.Context, campaignID uuid.UUID) ([]*model.CampaignLead, error) {
    query := `
        SELECT id, campaign_id, lead_id, status, lead_data, created_at, updated_at
        FROM campaign_leads
        WHERE campaign_id=$1 AND status IN ('pending', 'active')
        ORDER BY created_at ASC
    `
    rows, err := r.DB.QueryContext(ctx, query, campaignID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var leads []*model.CampaignLead
    for rows.Next() {
        cl := &model.CampaignLead{}
        var data []byte
        if err := rows.Scan(&cl.ID, &cl.CampaignID, &cl.LeadID, &cl.Status, &data, &cl.CreatedAt, &cl.UpdatedAt); err != nil {
            return nil, err
        }
        if len(data) > 0 {
            if err := json.Unmarshal(data, &cl.LeadData); err != nil {
                return nil, err
            }
        }
        leads = append(leads, cl)
    }
    return leads, rows.Err()
}

func (r *LeadRepository) UpdateLeadStatus(ctx context.Context, id uuid.UUID, status model.LeadStatus) error {
    query := `UPDATE campaign_leads SET status=$1, updated_at=NOW() WHERE id=$2`
    _, err := r.DB.ExecContext(ctx, query, status, id)
    return err
}

func (r *LeadRepository) GetCampaignStats(ctx context.Context, campaignID uuid.UUID) (map[string]int, error) {
    query := `SELECT status, COUNT(*) FROM campaign_leads WHERE campaign_id=$1 GROUP BY status`
    rows, err := r.DB.QueryContext(ctx, query, campaignID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    stats := map[string]int{"pending": 0, "active": 0, "completed": 0, "stopped": 0}
    for rows.Next() {
        var status string
        var count int
        if err := rows.Scan(&status, &count); err != nil {
            return nil, err
        }
        stats[status] = count
    }
    return stats, rows.Err()
}

// ====================== Activity log ======================

const activityColumns = `id, campaign_lead_id, step_id, step_type, status, COALESCE(error_message, ''), created_at`

func (r *LeadRepository) GetLatestSuccessfulActivity(ctx context.Context, campaignLeadID uuid.UUID) (*model.LeadActivity, error) {
    query := `
        SELECT ` + activityColumns + `
        FROM campaign_lead_activities
        WHERE campaign_lead_id=$1 AND status IN ('delivered', 'connected', 'replied')
        ORDER BY created_at DESC
        LIMIT 1
    `
    var a model.LeadActivity
    err := r.DB.QueryRowContext(ctx, query, campaignLeadID).Scan(
        &a.ID, &a.CampaignLeadID, &a.StepID, &a.StepType, &a.Status, &a.ErrorMessage, &a.CreatedAt)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil
        }
        return nil, err
    }
    return &a, nil
}

func (r *LeadRepository) HasSuccessfulActivity(ctx context.Context, campaignLeadID, stepID uuid.UUID) (bool, error) {
    var count int
    err := r.DB.QueryRowContext(ctx, `
        SELECT COUNT(*)
        FROM campaign_lead_activities
        WHERE campaign_lead_id=$1 AND step_id=$2 AND status IN ('delivered', 'connected', 'replied')`,
        campaignLeadID, stepID).Scan(&count)
    if err != nil {
        return false, err
    }
    return count > 0, nil
}

func (r *LeadRepository) GetRecentActivities(ctx context.Context, campaignLeadID uuid.UUID, limit int) ([]*model.LeadActivity, error) {
    query := `
        SELECT ` + activityColumns + `
        FROM campaign_lead_activities
        WHERE campaign_lead_id=$1
        ORDER BY created_at DESC
        LIMIT $2
    `
    rows, err := r.DB.QueryContext(ctx, query, campaignLeadID, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var activities []*model.LeadActivity
    for rows.Next() {
        a := &model.LeadActivity{}
        if err := rows.Scan(&a.ID, &a.CampaignLeadID, &a.StepID, &a.StepType, &a.Status, &a.ErrorMessage, &a.CreatedAt); err != nil {
            return nil, err
        }
        activities = append(activities, a)
    }
    return activities, rows.Err()
}

func (r *LeadRepository) AppendActivity(ctx context.Context, a *model.LeadActivity) error {
    if a.ID == uuid.Nil {
        a.ID = uuid.New()
    }
    a.CreatedAt = time.Now()

    query := `
        INSERT INTO campaign_lead_activities (id, campaign_lead_id, step_id, step_type, status, error_message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
    _, err := r.DB.ExecContext(ctx, query,
        a.ID, a.CampaignLeadID, a.StepID, a.StepType, a.Status, a.ErrorMessage, a.CreatedAt)
    return err
}

// FinalizeActivity updates the status of the in-flight attempt row. The log
// is otherwise append-only.
func (r *LeadRepository) FinalizeActivity(ctx context.Context, id uuid.UUID, status model.ActivityStatus, errorMessage string) error {
    query := `UPDATE campaign_lead_activities SET status=$1, error_message=$2 WHERE id=$3`
    _, err := r.DB.ExecContext(ctx, query, status, errorMessage, id)
    return err
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
