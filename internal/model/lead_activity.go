// internal/model/lead_activity.go
package model

import (
    "time"

    "github.com/google/uuid"
)

// ActivityStatus is the outcome of one step execution attempt.
type ActivityStatus string

const (
    ActivityPending   ActivityStatus = "pending"
    ActivitySent      ActivityStatus = "sent"
    ActivityDelivered ActivityStatus = "delivered"
    ActivityConnected ActivityStatus = "connected"
    ActivityReplied   ActivityStatus = "replied"
    ActivityOpened    ActivityStatus = "opened"
    ActivityClicked   ActivityStatus = "clicked"
    ActivityError     ActivityStatus = "error"
    ActivityFailed    ActivityStatus = "failed"
)

// IsTerminalSuccess reports whether the status marks a step as done for
// resume-point purposes. A lead resumes at the step after its most recent
// terminal-success activity.
func (s ActivityStatus) IsTerminalSuccess() bool {
    switch s {
    case ActivityDelivered, ActivityConnected, ActivityReplied:
        return true
    }
    return false
}

// LeadActivity is one row of the append-only execution log. Only the status
// and error message of the in-flight attempt row are ever updated.
type LeadActivity struct {
    ID             uuid.UUID      `db:"id" json:"id"`
    CampaignLeadID uuid.UUID      `db:"campaign_lead_id" json:"campaign_lead_id"`
    StepID         uuid.UUID      `db:"step_id" json:"step_id"`
    StepType       string         `db:"step_type" json:"step_type"`
    Status         ActivityStatus `db:"status" json:"status"`
    ErrorMessage   string         `db:"error_message,omitempty" json:"error_message,omitempty"`
    CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}
