// internal/model/campaign_step.go
package model

import (
    "time"

    "github.com/google/uuid"
)

// Step types understood by the engine. Channel steps are dispatched to the
// step executor registry; the rest are handled inline by the workflow
// processor.
const (
    StepLeadGeneration  = "lead_generation"
    StepStart           = "start"
    StepEnd             = "end"
    StepDelay           = "delay"
    StepCondition       = "condition"
    StepLinkedInConnect = "linkedin_connect"
    StepLinkedInMessage = "linkedin_message"
    StepEmail           = "email"
    StepWhatsApp        = "whatsapp"
    StepVoiceCall       = "voice_call"
)

// CampaignStep is one step of a campaign sequence. StepOrder is unique and
// ascending per campaign. Steps are immutable once a lead has passed them.
type CampaignStep struct {
    ID         uuid.UUID      `db:"id" json:"id"`
    CampaignID uuid.UUID      `db:"campaign_id" json:"campaign_id"`
    StepOrder  int            `db:"step_order" json:"step_order"`
    StepType   string         `db:"step_type" json:"step_type"`
    Config     map[string]any `db:"config" json:"config"`
    CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
