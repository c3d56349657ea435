// internal/leadsource/http_source.go
package leadsource

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "github.com/unclebandit/outreach-backend/internal/model"
)

// HTTPLeadSource talks to an Apollo-style people-search REST API.
type HTTPLeadSource struct {
    baseURL    string
    apiKey     string
    sourceName string
    httpClient *http.Client
}

func NewHTTPLeadSource(baseURL, apiKey, sourceName string) *HTTPLeadSource {
    return &HTTPLeadSource{
        baseURL:    baseURL,
        apiKey:     apiKey,
        sourceName: sourceName,
        httpClient: &http.Client{Timeout: 30 * time.Second},
    }
}

type searchRequest struct {
    Titles     []string `json:"person_titles,omitempty"`
    Locations  []string `json:"person_locations,omitempty"`
    Industries []string `json:"organization_industries,omitempty"`
    ExcludeIDs []string `json:"exclude_ids,omitempty"`
    Page       int      `json:"page"`
    PerPage    int      `json:"per_page"`
}

type searchResponse struct {
    People []SourceLead `json:"people"`
}

func (s *HTTPLeadSource) Search(ctx context.Context, filters model.SearchFilters, page, pageSize int, excludeIDs []string) (*SearchResult, error) {
    body, err := json.Marshal(searchRequest{
        Titles:     filters.Titles,
        Locations:  filters.Locations,
        Industries: filters.Industries,
        ExcludeIDs: excludeIDs,
        Page:       page,
        PerPage:    pageSize,
    })
    if err != nil {
        return nil, err
    }

    req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/people/search", bytes.NewReader(body))
    if err != nil {
        return nil, err
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Api-Key", s.apiKey)

    resp, err := s.httpClient.Do(req)
    if err != nil {
        return nil, fmt.Errorf("lead source request failed: %w", err)
    }
    defer resp.Body.Close()

    switch {
    case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusPaymentRequired:
        return &SearchResult{Source: s.sourceName, AccessDenied: true}, nil
    case resp.StatusCode != http.StatusOK:
        return nil, fmt.Errorf("lead source returned status %d", resp.StatusCode)
    }

    var out searchResponse
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
        return nil, fmt.Errorf("failed to decode lead source response: %w", err)
    }

    return &SearchResult{Leads: out.People, Source: s.sourceName}, nil
}

var _ LeadSource = (*HTTPLeadSource)(nil)
