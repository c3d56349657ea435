// internal/model/campaign_lead.go
package model

import (
    "time"

    "github.com/google/uuid"
)

// LeadStatus is the workflow status of a lead inside one campaign.
type LeadStatus string

const (
    LeadPending   LeadStatus = "pending"
    LeadActive    LeadStatus = "active"
    LeadCompleted LeadStatus = "completed"
    LeadStopped   LeadStatus = "stopped"
)

// CampaignLead ties a lead to a campaign. LeadData is a point-in-time
// snapshot of the lead's attributes captured at generation time; uploaded
// (inbound) leads carry no snapshot, and that distinction partitions the two
// populations.
type CampaignLead struct {
    ID         uuid.UUID      `db:"id" json:"id"`
    CampaignID uuid.UUID      `db:"campaign_id" json:"campaign_id"`
    LeadID     uuid.UUID      `db:"lead_id" json:"lead_id"`
    Status     LeadStatus     `db:"status" json:"status"`
    LeadData   map[string]any `db:"lead_data" json:"lead_data,omitempty"`
    CreatedAt  time.Time      `db:"created_at" json:"created_at"`
    UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}
