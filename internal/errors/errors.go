// internal/errors/errors.go
package appErrors

import (
    "fmt"

    "github.com/google/uuid"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
    CampaignID uuid.UUID
}

func (e *ErrCampaignNotFound) Error() string {
    return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id uuid.UUID) error {
    return &ErrCampaignNotFound{CampaignID: id}
}

// ConfigurationError means a step or campaign is misconfigured (missing
// required fields, no search filters). Never retried; the user must fix it.
type ConfigurationError struct {
    Reason        string
    MissingFields []string
}

func (e *ConfigurationError) Error() string {
    if len(e.MissingFields) > 0 {
        return fmt.Sprintf("configuration error: %s (missing: %v)", e.Reason, e.MissingFields)
    }
    return fmt.Sprintf("configuration error: %s", e.Reason)
}

// TransientInfraError wraps a search or database failure. The campaign moves
// to the error state and waits for a manual reset.
type TransientInfraError struct {
    Op  string
    Err error
}

func (e *TransientInfraError) Error() string {
    return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransientInfraError) Unwrap() error { return e.Err }

// AccessDeniedError means the lead source rejected the request for plan or
// feature reasons. Non-fatal: the campaign retries on a fixed interval.
type AccessDeniedError struct {
    Source string
}

func (e *AccessDeniedError) Error() string {
    return fmt.Sprintf("access denied by lead source %q", e.Source)
}

// NoCandidatesError means the source returned nothing at all for the search.
type NoCandidatesError struct {
    Source string
}

func (e *NoCandidatesError) Error() string {
    return fmt.Sprintf("lead source %q returned no candidates", e.Source)
}
