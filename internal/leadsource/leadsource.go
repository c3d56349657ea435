// internal/leadsource/leadsource.go
package leadsource

import (
    "context"

    "github.com/unclebandit/outreach-backend/internal/model"
)

// SourceLead is one candidate returned by a search. SourceID is the
// source-specific unique identifier used for tenant-wide dedup.
type SourceLead struct {
    SourceID    string `json:"id"`
    FirstName   string `json:"first_name"`
    LastName    string `json:"last_name"`
    Title       string `json:"title"`
    Company     string `json:"company"`
    Location    string `json:"location"`
    Email       string `json:"email"`
    LinkedInURL string `json:"linkedin_url"`
}

// SearchResult is one page of candidates.
type SearchResult struct {
    Leads  []SourceLead
    Source string
    // AccessDenied is set when the source rejects the request for plan or
    // feature reasons; the caller retries later instead of erroring out.
    AccessDenied bool
}

// LeadSource is the lead source adapter port. ExcludeIDs lets adapters that
// support it filter already-used leads server side; callers must still
// filter locally.
type LeadSource interface {
    Search(ctx context.Context, filters model.SearchFilters, page, pageSize int, excludeIDs []string) (*SearchResult, error)
}
