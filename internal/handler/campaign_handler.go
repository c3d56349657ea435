// internal/handler/campaign_handler.go
package handler

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"
    "github.com/google/uuid"

    appErrors "github.com/unclebandit/outreach-backend/internal/errors"
    "github.com/unclebandit/outreach-backend/internal/repository"
    "github.com/unclebandit/outreach-backend/internal/service"
)

// CampaignHandler holds the dependencies for campaign read endpoints
type CampaignHandler struct {
    Repo    repository.LeadRepositoryInterface
    Service *service.CampaignService
}

// GetCampaignWithStats returns the campaign plus lead counts by status.
func (h *CampaignHandler) GetCampaignWithStats(w http.ResponseWriter, r *http.Request) {
    id, err := uuid.Parse(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return
    }

    details, err := h.Service.GetCampaignDetailsWithStats(r.Context(), id)
    if err != nil {
        var notFound *appErrors.ErrCampaignNotFound
        if errors.As(err, &notFound) {
            http.Error(w, err.Error(), http.StatusNotFound)
            return
        }
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    json.NewEncoder(w).Encode(details)
}

// ListLeadActivities returns the recent execution log of one campaign lead.
func (h *CampaignHandler) ListLeadActivities(w http.ResponseWriter, r *http.Request) {
    leadID, err := uuid.Parse(chi.URLParam(r, "leadId"))
    if err != nil {
        http.Error(w, "invalid lead id", http.StatusBadRequest)
        return
    }

    limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
    if limit < 1 || limit > 100 {
        limit = 50
    }

    activities, err := h.Repo.GetRecentActivities(r.Context(), leadID, limit)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    json.NewEncoder(w).Encode(map[string]interface{}{
        "campaign_lead_id": leadID,
        "activities":       activities,
    })
}
