// internal/model/lead.go
package model

import (
    "time"

    "github.com/google/uuid"
)

// Lead is a person fetched from an external source. (tenant_id, source_id)
// is unique: a lead is never introduced to the same tenant twice, across all
// campaigns.
type Lead struct {
    ID          uuid.UUID `db:"id" json:"id"`
    TenantID    uuid.UUID `db:"tenant_id" json:"tenant_id"`
    Source      string    `db:"source" json:"source"`
    SourceID    string    `db:"source_id" json:"source_id"`
    FirstName   string    `db:"first_name" json:"first_name"`
    LastName    string    `db:"last_name" json:"last_name"`
    Title       string    `db:"title" json:"title"`
    Company     string    `db:"company" json:"company"`
    Location    string    `db:"location" json:"location"`
    Email       string    `db:"email" json:"email"`
    LinkedInURL string    `db:"linkedin_url" json:"linkedin_url"`
    CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
