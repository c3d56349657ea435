// internal/controller/campaign_controller.go
package controller

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"
    "github.com/google/uuid"

    appErrors "github.com/unclebandit/outreach-backend/internal/errors"
    "github.com/unclebandit/outreach-backend/internal/model"
    "github.com/unclebandit/outreach-backend/internal/service"
)

type CampaignController struct {
    CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
    var body struct {
        TenantID string               `json:"tenant_id"`
        Name     string               `json:"name"`
        Type     model.CampaignType   `json:"type"`
        Config   model.CampaignConfig `json:"config"`
        Steps    []service.StepInput  `json:"steps"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    tenantID, err := uuid.Parse(body.TenantID)
    if err != nil {
        http.Error(w, "invalid tenant_id", http.StatusBadRequest)
        return
    }

    campaign, err := c.CampaignService.CreateCampaign(r.Context(), tenantID, body.Name, body.Type, body.Config, body.Steps)
    if err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }

    w.WriteHeader(http.StatusCreated)
    json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
    status := r.URL.Query().Get("status")

    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }

    campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, status)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    json.NewEncoder(w).Encode(map[string]interface{}{
        "data":       campaigns,
        "pagination": pagination,
    })
}

func (c *CampaignController) StartCampaign(w http.ResponseWriter, r *http.Request) {
    c.statusTransition(w, r, c.CampaignService.StartCampaign, "running")
}

func (c *CampaignController) PauseCampaign(w http.ResponseWriter, r *http.Request) {
    c.statusTransition(w, r, c.CampaignService.PauseCampaign, "paused")
}

func (c *CampaignController) StopCampaign(w http.ResponseWriter, r *http.Request) {
    c.statusTransition(w, r, c.CampaignService.StopCampaign, "stopped")
}

func (c *CampaignController) ResetError(w http.ResponseWriter, r *http.Request) {
    c.statusTransition(w, r, c.CampaignService.ResetError, "reset")
}

func (c *CampaignController) statusTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) error, result string) {
    id, err := uuid.Parse(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return
    }

    if err := fn(r.Context(), id); err != nil {
        writeServiceError(w, err)
        return
    }

    json.NewEncoder(w).Encode(map[string]interface{}{
        "campaign_id": id,
        "status":      result,
    })
}

func (c *CampaignController) UploadLeads(w http.ResponseWriter, r *http.Request) {
    id, err := uuid.Parse(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return
    }

    var body struct {
        Leads []service.LeadUpload `json:"leads"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    added, err := c.CampaignService.UploadLeads(r.Context(), id, body.Leads)
    if err != nil {
        writeServiceError(w, err)
        return
    }

    json.NewEncoder(w).Encode(map[string]interface{}{
        "campaign_id": id,
        "leads_added": added,
    })
}

func writeServiceError(w http.ResponseWriter, err error) {
    var notFound *appErrors.ErrCampaignNotFound
    if errors.As(err, &notFound) {
        http.Error(w, err.Error(), http.StatusNotFound)
        return
    }
    http.Error(w, err.Error(), http.StatusInternalServerError)
}
