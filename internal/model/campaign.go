// internal/model/campaign.go
package model

import (
    "time"

    "github.com/google/uuid"
)

// CampaignStatus is the user-controlled lifecycle status. Start/pause/stop
// only flip this field; the scheduler never considers campaigns that are not
// running.
type CampaignStatus string

const (
    StatusDraft     CampaignStatus = "draft"
    StatusRunning   CampaignStatus = "running"
    StatusPaused    CampaignStatus = "paused"
    StatusStopped   CampaignStatus = "stopped"
    StatusCompleted CampaignStatus = "completed"
)

// ExecutionState is the system-controlled pacing state. Only the campaign
// processor transitions it.
type ExecutionState string

const (
    ExecutionActive   ExecutionState = "active"
    ExecutionWaiting  ExecutionState = "waiting_for_leads"
    ExecutionSleeping ExecutionState = "sleeping_until_next_day"
    ExecutionError    ExecutionState = "error"
)

// CampaignType partitions the lead population. Outbound campaigns process
// generated leads (which carry snapshot data); inbound campaigns process
// uploaded leads only.
type CampaignType string

const (
    TypeOutbound CampaignType = "outbound"
    TypeInbound  CampaignType = "inbound"
)

// SearchFilters are the lead-source search criteria.
type SearchFilters struct {
    Titles     []string `json:"titles,omitempty"`
    Locations  []string `json:"locations,omitempty"`
    Industries []string `json:"industries,omitempty"`
}

// Empty reports whether no criterion is set.
func (f SearchFilters) Empty() bool {
    return len(f.Titles) == 0 && len(f.Locations) == 0 && len(f.Industries) == 0
}

// CampaignConfig holds the lead-generation quota and resumable cursor.
// LastLeadGenDate is a calendar date (2006-01-02); at most one generation
// pass happens per date.
type CampaignConfig struct {
    LeadsPerDay     int           `json:"leads_per_day"`
    LeadGenOffset   int           `json:"lead_gen_offset"`
    LastLeadGenDate string        `json:"last_lead_gen_date,omitempty"`
    Filters         SearchFilters `json:"filters"`
    Limit           int           `json:"limit,omitempty"`
}

type Campaign struct {
    ID                  uuid.UUID      `db:"id" json:"id"`
    TenantID            uuid.UUID      `db:"tenant_id" json:"tenant_id"`
    Name                string         `db:"name" json:"name"`
    Type                CampaignType   `db:"type" json:"type"`
    Status              CampaignStatus `db:"status" json:"status"`
    ExecutionState      ExecutionState `db:"execution_state" json:"execution_state"`
    NextRunAt           *time.Time     `db:"next_run_at" json:"next_run_at,omitempty"`
    LastLeadCheckAt     *time.Time     `db:"last_lead_check_at" json:"last_lead_check_at,omitempty"`
    LastExecutionReason string         `db:"last_execution_reason" json:"last_execution_reason,omitempty"`
    Config              CampaignConfig `db:"config" json:"config"`
    CreatedAt           time.Time      `db:"created_at" json:"created_at"`
    UpdatedAt           *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}
