// internal/service/leadgen.go
package service

import (
    "context"
    "time"

    "go.uber.org/zap"

    "github.com/unclebandit/outreach-backend/internal/config"
    appErrors "github.com/unclebandit/outreach-backend/internal/errors"
    "github.com/unclebandit/outreach-backend/internal/leadsource"
    "github.com/unclebandit/outreach-backend/internal/model"
    "github.com/unclebandit/outreach-backend/internal/repository"
)

const (
    dateLayout        = "2006-01-02"
    defaultDailyQuota = 25
)

// GenerationResult reports one lead-generation pass to the campaign
// processor. StateHint, when set, tells the state machine where to go;
// DailyLimitReached defers the sleep transition until after the day's leads
// have been pushed through the workflow.
type GenerationResult struct {
    LeadsFound        int
    LeadsSaved        int
    NewOffset         int
    DailyLimitReached bool
    StateHint         model.ExecutionState
    NextRunAt         *time.Time
    Reason            string
}

// LeadGenEngine fills a campaign's daily quota from the external lead
// source, deduplicating against every lead the tenant has ever seen and
// advancing the resumable offset cursor.
type LeadGenEngine struct {
    Campaigns repository.CampaignRepositoryInterface
    Leads     repository.LeadRepositoryInterface
    Source    leadsource.LeadSource
    Cfg       *config.Config
    Log       *zap.Logger

    nowFn func() time.Time
}

func NewLeadGenEngine(campaigns repository.CampaignRepositoryInterface, leads repository.LeadRepositoryInterface, source leadsource.LeadSource, cfg *config.Config, log *zap.Logger) *LeadGenEngine {
    return &LeadGenEngine{
        Campaigns: campaigns,
        Leads:     leads,
        Source:    source,
        Cfg:       cfg,
        Log:       log,
        nowFn:     time.Now,
    }
}

// Generate runs at most one lead-generation pass per calendar day per
// campaign. Configuration errors and infra failures are returned as typed
// errors; access-denied and empty-source outcomes come back as state hints.
func (e *LeadGenEngine) Generate(ctx context.Context, campaign *model.Campaign, step *model.CampaignStep) (*GenerationResult, error) {
    now := e.nowFn()
    cfg := effectiveConfig(campaign, step)

    // Idempotent daily gate: a restart must not generate twice on one date.
    today := now.Format(dateLayout)
    if cfg.LastLeadGenDate == today {
        return &GenerationResult{
            NewOffset: cfg.LeadGenOffset,
            Reason:    "lead generation already ran today",
        }, nil
    }

    quota := cfg.LeadsPerDay
    if quota <= 0 {
        quota = cfg.Limit
    }
    if quota <= 0 {
        quota = defaultDailyQuota
    }

    if cfg.Filters.Empty() {
        return nil, &appErrors.ConfigurationError{
            Reason:        "lead generation requires at least one search filter",
            MissingFields: []string{"titles", "locations", "industries"},
        }
    }

    used, err := e.Leads.GetUsedSourceIDs(ctx, campaign.TenantID)
    if err != nil {
        return nil, &appErrors.TransientInfraError{Op: "load used lead ids", Err: err}
    }
    excludeIDs := make([]string, 0, len(used))
    for id := range used {
        excludeIDs = append(excludeIDs, id)
    }

    pageSize := e.Cfg.LeadFetchPageSize
    offset := cfg.LeadGenOffset
    page := offset/pageSize + 1
    offsetInPage := offset % pageSize

    var (
        found        int
        saved        int
        newOffset    = offset
        accessDenied bool
        sourceName   string
        firstPage    = true
    )

    for attempts := 0; attempts < e.Cfg.MaxLeadPageAttempts && saved < quota; attempts++ {
        res, err := e.Source.Search(ctx, cfg.Filters, page, pageSize, excludeIDs)
        if err != nil {
            return nil, &appErrors.TransientInfraError{Op: "lead source search", Err: err}
        }
        sourceName = res.Source
        if res.AccessDenied {
            accessDenied = true
            break
        }

        start := 0
        if firstPage {
            start = offsetInPage
            firstPage = false
        }
        if start < len(res.Leads) {
            found += len(res.Leads) - start
        }

        for i := start; i < len(res.Leads) && saved < quota; i++ {
            cand := res.Leads[i]
            newOffset = (page-1)*pageSize + i + 1

            // Local safety net on top of the adapter-level exclude list.
            if _, seen := used[cand.SourceID]; seen {
                continue
            }

            lead := &model.Lead{
                TenantID:    campaign.TenantID,
                Source:      res.Source,
                SourceID:    cand.SourceID,
                FirstName:   cand.FirstName,
                LastName:    cand.LastName,
                Title:       cand.Title,
                Company:     cand.Company,
                Location:    cand.Location,
                Email:       cand.Email,
                LinkedInURL: cand.LinkedInURL,
            }
            cl := &model.CampaignLead{
                CampaignID: campaign.ID,
                Status:     model.LeadPending,
                LeadData:   snapshot(cand),
            }
            inserted, err := e.Leads.InsertLeadWithCampaign(ctx, lead, cl)
            if err != nil {
                return nil, &appErrors.TransientInfraError{Op: "persist lead", Err: err}
            }
            used[cand.SourceID] = struct{}{}
            if !inserted {
                // Conflict on (tenant, source_id): already exists, absorb.
                continue
            }
            saved++
        }

        if len(res.Leads) < pageSize {
            // Source exhausted.
            break
        }
        page++
    }

    result := &GenerationResult{
        LeadsFound:        found,
        LeadsSaved:        saved,
        NewOffset:         newOffset,
        DailyLimitReached: saved >= quota,
    }

    if accessDenied && saved == 0 {
        retryAt := now.Add(time.Duration(e.Cfg.LeadRetryIntervalHours) * time.Hour)
        result.StateHint = model.ExecutionWaiting
        result.NextRunAt = &retryAt
        result.Reason = (&appErrors.AccessDeniedError{Source: sourceName}).Error()
        return result, nil
    }

    if found == 0 {
        // Nothing from the source at all. Leave the cursor and the daily
        // gate untouched so the waiting-state retry can try again today.
        retryAt := earlier(now.Add(time.Duration(e.Cfg.LeadRetryIntervalHours)*time.Hour), e.nextDailyRetry(now))
        result.StateHint = model.ExecutionWaiting
        result.NextRunAt = &retryAt
        result.Reason = (&appErrors.NoCandidatesError{Source: sourceName}).Error()
        return result, nil
    }

    newCfg := campaign.Config
    newCfg.LeadGenOffset = newOffset
    newCfg.LastLeadGenDate = today
    if err := e.Campaigns.UpdateConfig(ctx, campaign.ID, newCfg); err != nil {
        return nil, &appErrors.TransientInfraError{Op: "advance lead cursor", Err: err}
    }
    campaign.Config = newCfg

    e.Log.Info("lead generation pass finished",
        zap.String("campaign_id", campaign.ID.String()),
        zap.Int("found", found),
        zap.Int("saved", saved),
        zap.Int("new_offset", newOffset),
        zap.Bool("daily_limit_reached", result.DailyLimitReached))

    return result, nil
}

// effectiveConfig prefers the campaign's config column and falls back to the
// lead_generation step's config field by field, so a campaign carrying only a
// quota still picks up the step's filters and vice versa. The cursor fields
// always come from the campaign.
func effectiveConfig(campaign *model.Campaign, step *model.CampaignStep) model.CampaignConfig {
    cfg := campaign.Config
    if step == nil {
        return cfg
    }
    if cfg.LeadsPerDay == 0 {
        cfg.LeadsPerDay = int(configNumber(step.Config, "leads_per_day"))
    }
    if cfg.Limit == 0 {
        cfg.Limit = int(configNumber(step.Config, "limit"))
    }
    if cfg.Filters.Empty() {
        cfg.Filters = model.SearchFilters{
            Titles:     configStringSlice(step.Config, "titles"),
            Locations:  configStringSlice(step.Config, "locations"),
            Industries: configStringSlice(step.Config, "industries"),
        }
    }
    return cfg
}

func snapshot(cand leadsource.SourceLead) map[string]any {
    return map[string]any{
        "source_id":    cand.SourceID,
        "first_name":   cand.FirstName,
        "last_name":    cand.LastName,
        "title":        cand.Title,
        "company":      cand.Company,
        "location":     cand.Location,
        "email":        cand.Email,
        "linkedin_url": cand.LinkedInURL,
    }
}

// nextDailyRetry returns the next occurrence of the configured daily retry
// time.
func (e *LeadGenEngine) nextDailyRetry(now time.Time) time.Time {
    retry := time.Date(now.Year(), now.Month(), now.Day(),
        e.Cfg.DailyRetryHour, e.Cfg.DailyRetryMinute, 0, 0, now.Location())
    if !retry.After(now) {
        retry = retry.AddDate(0, 0, 1)
    }
    return retry
}

func earlier(a, b time.Time) time.Time {
    if a.Before(b) {
        return a
    }
    return b
}
