// internal/service/scheduler.go
package service

import (
    "context"
    "fmt"
    "sync"
    "sync/atomic"
    "time"

    "go.uber.org/zap"

    "github.com/unclebandit/outreach-backend/internal/distlock"
    "github.com/unclebandit/outreach-backend/internal/model"
    "github.com/unclebandit/outreach-backend/internal/repository"
)

// Scheduler polls for due campaigns on a fixed interval and hands each to
// the campaign processor. Distinct campaigns run concurrently; the same
// campaign never does, because a run only starts after acquiring that
// campaign's lease.
type Scheduler struct {
    Campaigns repository.CampaignRepositoryInterface
    Processor *CampaignProcessor
    Leases    distlock.Factory
    Interval  time.Duration
    Log       *zap.Logger

    // Stats
    runsCompleted int64
    runsSkipped   int64
    runErrors     int64

    // Control
    ctx     context.Context
    cancel  context.CancelFunc
    wg      sync.WaitGroup
    running bool
    mu      sync.RWMutex

    nowFn func() time.Time
}

func NewScheduler(campaigns repository.CampaignRepositoryInterface, processor *CampaignProcessor, leases distlock.Factory, interval time.Duration, log *zap.Logger) *Scheduler {
    return &Scheduler{
        Campaigns: campaigns,
        Processor: processor,
        Leases:    leases,
        Interval:  interval,
        Log:       log,
        nowFn:     time.Now,
    }
}

// Start begins the polling loop.
func (s *Scheduler) Start() error {
    s.mu.Lock()
    if s.running {
        s.mu.Unlock()
        return fmt.Errorf("scheduler already running")
    }
    s.running = true
    s.ctx, s.cancel = context.WithCancel(context.Background())
    s.mu.Unlock()

    s.Log.Info("scheduler starting", zap.Duration("interval", s.Interval))

    s.wg.Add(1)
    go s.loop()
    return nil
}

// Stop cancels the loop and waits for in-flight campaign runs to finish;
// there is no mid-run cancellation of an individual campaign.
func (s *Scheduler) Stop() {
    s.mu.Lock()
    if !s.running {
        s.mu.Unlock()
        return
    }
    s.running = false
    s.mu.Unlock()

    s.cancel()
    s.wg.Wait()
    s.Log.Info("scheduler stopped",
        zap.Int64("runs_completed", atomic.LoadInt64(&s.runsCompleted)),
        zap.Int64("runs_skipped", atomic.LoadInt64(&s.runsSkipped)),
        zap.Int64("run_errors", atomic.LoadInt64(&s.runErrors)))
}

func (s *Scheduler) loop() {
    defer s.wg.Done()

    ticker := time.NewTicker(s.Interval)
    defer ticker.Stop()

    for {
        select {
        case <-s.ctx.Done():
            return
        case <-ticker.C:
            s.Tick(s.ctx)
        }
    }
}

// Tick runs one scheduling pass and waits for every campaign run it started.
// Errors are isolated per campaign; one bad campaign never halts the batch.
func (s *Scheduler) Tick(ctx context.Context) {
    due, err := s.Campaigns.GetDueCampaigns(ctx, s.nowFn())
    if err != nil {
        s.Log.Error("failed to load due campaigns", zap.Error(err))
        return
    }

    var wg sync.WaitGroup
    for _, campaign := range due {
        wg.Add(1)
        go func(c *model.Campaign) {
            defer wg.Done()
            s.runCampaign(ctx, c)
        }(campaign)
    }
    wg.Wait()
}

func (s *Scheduler) runCampaign(ctx context.Context, campaign *model.Campaign) {
    lease := s.Leases(campaign.ID)
    acquired, err := lease.Acquire(ctx)
    if err != nil {
        atomic.AddInt64(&s.runErrors, 1)
        s.Log.Error("lease acquire failed",
            zap.String("campaign_id", campaign.ID.String()),
            zap.Error(err))
        return
    }
    if !acquired {
        // A previous run is still holding the campaign.
        atomic.AddInt64(&s.runsSkipped, 1)
        s.Log.Debug("campaign lease held, skipping",
            zap.String("campaign_id", campaign.ID.String()))
        return
    }
    defer func() {
        if err := lease.Release(ctx); err != nil {
            s.Log.Warn("lease release failed",
                zap.String("campaign_id", campaign.ID.String()),
                zap.Error(err))
        }
    }()

    result, err := s.Processor.Run(ctx, campaign.ID)
    if err != nil {
        atomic.AddInt64(&s.runErrors, 1)
        s.Log.Error("campaign run failed",
            zap.String("campaign_id", campaign.ID.String()),
            zap.Error(err))
        return
    }

    if result.Skipped {
        atomic.AddInt64(&s.runsSkipped, 1)
        s.Log.Debug("campaign run skipped",
            zap.String("campaign_id", campaign.ID.String()),
            zap.String("reason", result.Reason))
        return
    }

    atomic.AddInt64(&s.runsCompleted, 1)
    s.Log.Info("campaign run finished",
        zap.String("campaign_id", campaign.ID.String()),
        zap.Bool("success", result.Success),
        zap.Int("lead_count", result.LeadCount),
        zap.String("reason", result.Reason))
}

// Stats returns scheduler counters for health endpoints.
func (s *Scheduler) Stats() map[string]int64 {
    return map[string]int64{
        "runs_completed": atomic.LoadInt64(&s.runsCompleted),
        "runs_skipped":   atomic.LoadInt64(&s.runsSkipped),
        "run_errors":     atomic.LoadInt64(&s.runErrors),
    }
}
