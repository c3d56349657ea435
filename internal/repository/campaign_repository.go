package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "time"

    "github.com/google/uuid"

    appErrors "github.com/unclebandit/outreach-backend/internal/errors"
    "github.com/unclebandit/outreach-backend/internal/model"
)

// ExecutionUpdate carries the fields the campaign processor writes when it
// transitions execution state. Nil pointers leave the column untouched,
// except NextRunAt which is always written (clearing it needs an explicit
// NULL).
type ExecutionUpdate struct {
    State           model.ExecutionState
    Reason          string
    NextRunAt       *time.Time
    LastLeadCheckAt *time.Time
}

type CampaignRepositoryInterface interface {
    // Campaign CRUD
    Create(ctx context.Context, c *model.Campaign) error
    GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
    List(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
    UpdateStatus(ctx context.Context, id uuid.UUID, status model.CampaignStatus) error
    UpdateConfig(ctx context.Context, id uuid.UUID, cfg model.CampaignConfig) error

    // Execution engine
    GetDueCampaigns(ctx context.Context, now time.Time) ([]*model.Campaign, error)
    UpdateExecutionState(ctx context.Context, id uuid.UUID, upd ExecutionUpdate) error

    // Steps
    CreateStep(ctx context.Context, s *model.CampaignStep) error
    GetSteps(ctx context.Context, campaignID uuid.UUID) ([]*model.CampaignStep, error)
}

type CampaignRepository struct {
    DB *sql.DB
}

const campaignColumns = `id, tenant_id, name, type, status, execution_state,
       next_run_at, last_lead_check_at, COALESCE(last_execution_reason, ''),
       config, created_at, updated_at`

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
    if c.ID == uuid.Nil {
        c.ID = uuid.New()
    }
    if c.Status == "" {
        c.Status = model.StatusDraft
    }
    if c.ExecutionState == "" {
        c.ExecutionState = model.ExecutionActive
    }
    if c.Type == "" {
        c.Type = model.TypeOutbound
    }
    c.CreatedAt = time.Now()

    cfg, err := json.Marshal(c.Config)
    if err != nil {
        return err
    }

    query := `
        INSERT INTO campaigns (id, tenant_id, name, type, status, execution_state, config, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
    _, err = r.DB.ExecContext(ctx, query,
        c.ID, c.TenantID, c.Name, c.Type, c.Status, c.ExecutionState, cfg, c.CreatedAt)
    return err
}

func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
    query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
    c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewCampaignNotFound(id)
        }
        return nil, err
    }
    return c, nil
}

func (r *CampaignRepository) List(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
    campaigns := []*model.Campaign{}
    query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
    args := []interface{}{}
    argPos := 1

    if status != "" {
        query += fmt.Sprintf(" AND status=$%d", argPos)
        args = append(args, status)
        argPos++
    }

    query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
    args = append(args, limit, offset)

    rows, err := r.DB.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    for rows.Next() {
        c, err := scanCampaign(rows)
        if err != nil {
            return nil, 0, err
        }
        campaigns = append(campaigns, c)
    }

    countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
    argsCount := []interface{}{}
    if status != "" {
        countQuery += " AND status=$1"
        argsCount = append(argsCount, status)
    }

    var total int
    if err := r.DB.QueryRowContext(ctx, countQuery, argsCount...).Scan(&total); err != nil {
        return nil, 0, err
    }

    return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.CampaignStatus) error {
    query := `UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2`
    _, err := r.DB.ExecContext(ctx, query, status, id)
    return err
}

func (r *CampaignRepository) UpdateConfig(ctx context.Context, id uuid.UUID, cfg model.CampaignConfig) error {
    raw, err := json.Marshal(cfg)
    if err != nil {
        return err
    }
    query := `UPDATE campaigns SET config=$1, updated_at=NOW() WHERE id=$2`
    _, err = r.DB.ExecContext(ctx, query, raw, id)
    return err
}

// ====================== Execution engine ======================

// GetDueCampaigns returns running campaigns the scheduler should consider
// this tick: active ones, plus waiting/sleeping ones whose retry time has
// arrived.
func (r *CampaignRepository) GetDueCampaigns(ctx context.Context, now time.Time) ([]*model.Campaign, error) {
    query := `SELECT ` + campaignColumns + `
        FROM campaigns
        WHERE status = 'running'
          AND (execution_state = 'active'
               OR (execution_state IN ('waiting_for_leads', 'sleeping_until_next_day')
                   AND next_run_at IS NOT NULL AND next_run_at <= $1))
        ORDER BY created_at ASC`

    rows, err := r.DB.QueryContext(ctx, query, now)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var campaigns []*model.Campaign
    for rows.Next() {
        c, err := scanCampaign(rows)
        if err != nil {
            return nil, err
        }
        campaigns = append(campaigns, c)
    }
    return campaigns, rows.Err()
}

func (r *CampaignRepository) UpdateExecutionState(ctx context.Context, id uuid.UUID, upd ExecutionUpdate) error {
    query := `
        UPDATE campaigns
        SET execution_state=$1,
            last_execution_reason=$2,
            next_run_at=$3,
            last_lead_check_at=COALESCE($4, last_lead_check_at),
            updated_at=NOW()
        WHERE id=$5
    `
    _, err := r.DB.ExecContext(ctx, query, upd.State, upd.Reason, upd.NextRunAt, upd.LastLeadCheckAt, id)
    return err
}

// ====================== Steps ======================

func (r *CampaignRepository) CreateStep(ctx context.Context, s *model.CampaignStep) error {
    if s.ID == uuid.Nil {
        s.ID = uuid.New()
    }
    s.CreatedAt = time.Now()

    cfg, err := json.Marshal(s.Config)
    if err != nil {
        return err
    }

    query := `
        INSERT INTO campaign_steps (id, campaign_id, step_order, step_type, config, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
    _, err = r.DB.ExecContext(ctx, query, s.ID, s.CampaignID, s.StepOrder, s.StepType, cfg, s.CreatedAt)
    return err
}

func (r *CampaignRepository) GetSteps(ctx context.Context, campaignID uuid.UUID) ([]*model.CampaignStep, error) {
    query := `
        SELECT id, campaign_id, step_order, step_type, config, created_at
        FROM campaign_steps
        WHERE campaign_id=$1
        ORDER BY step_order ASC
    `
    rows, err := r.DB.QueryContext(ctx, query, campaignID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var steps []*model.CampaignStep
    for rows.Next() {
        s := &model.CampaignStep{}
        var cfg []byte
        if err := rows.Scan(&s.ID, &s.CampaignID, &s.StepOrder, &s.StepType, &cfg, &s.CreatedAt); err != nil {
            return nil, err
        }
        if len(cfg) > 0 {
            if err := json.Unmarshal(cfg, &s.Config); err != nil {
                return nil, err
            }
        }
        steps = append(steps, s)
    }
    return steps, rows.Err()
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
    var c model.Campaign
    var cfg []byte
    err := row.Scan(
        &c.ID, &c.TenantID, &c.Name, &c.Type, &c.Status, &c.ExecutionState,
        &c.NextRunAt, &c.LastLeadCheckAt, &c.LastExecutionReason,
        &cfg, &c.CreatedAt, &c.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if len(cfg) > 0 {
        if err := json.Unmarshal(cfg, &c.Config); err != nil {
            return nil, err
        }
    }
    return &c, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
