// cmd/server/main.go
package main

import (
    "log"
    "net/http"

    "github.com/go-chi/chi/v5"
    "github.com/joho/godotenv"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/unclebandit/outreach-backend/internal/config"
    "github.com/unclebandit/outreach-backend/internal/controller"
    "github.com/unclebandit/outreach-backend/internal/db"
    "github.com/unclebandit/outreach-backend/internal/distlock"
    "github.com/unclebandit/outreach-backend/internal/handler"
    "github.com/unclebandit/outreach-backend/internal/leadsource"
    "github.com/unclebandit/outreach-backend/internal/logger"
    "github.com/unclebandit/outreach-backend/internal/model"
    "github.com/unclebandit/outreach-backend/internal/queue"
    "github.com/unclebandit/outreach-backend/internal/repository"
    "github.com/unclebandit/outreach-backend/internal/service"
)

func main() {
    // Load .env
    if err := godotenv.Load(); err != nil {
        log.Println("⚠️ No .env file found, relying on OS environment variables")
    }

    cfg := config.Load()

    zlog, err := logger.New(cfg.Environment)
    if err != nil {
        log.Fatalf("failed to build logger: %v", err)
    }
    defer zlog.Sync()

    conn, err := db.Open(cfg)
    if err != nil {
        zlog.Fatal("database connection failed", zap.Error(err))
    }
    defer conn.Close()

    var redisClient *redis.Client
    if cfg.RedisAddr != "" {
        redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
        defer redisClient.Close()
    }

    var publisher queue.Publisher
    if cfg.AMQPURL != "" {
        amqpPub, err := queue.NewAMQPPublisher(cfg.AMQPURL, zlog)
        if err != nil {
            zlog.Fatal("rabbitmq connection failed", zap.Error(err))
        }
        publisher = amqpPub
    } else {
        zlog.Warn("AMQP_URL not set, stats events stay in memory")
        publisher = queue.NewInMemoryPublisher()
    }

    campaignRepo := &repository.CampaignRepository{DB: conn}
    leadRepo := &repository.LeadRepository{DB: conn}

    source := leadsource.NewHTTPLeadSource(cfg.LeadSourceBaseURL, cfg.LeadSourceAPIKey, "apollo")

    // Real channel senders plug in here; the logging executor stands in for
    // development deployments.
    registry := service.NewRegistry(zlog)
    channelStub := &service.LoggingExecutor{Log: zlog}
    for _, stepType := range []string{
        model.StepLinkedInConnect, model.StepLinkedInMessage,
        model.StepEmail, model.StepWhatsApp, model.StepVoiceCall,
    } {
        registry.Register(stepType, channelStub)
    }
    registry.Register(model.StepStart, service.NoopExecutor{})
    registry.Register(model.StepEnd, service.NoopExecutor{})

    leadGen := service.NewLeadGenEngine(campaignRepo, leadRepo, source, cfg, zlog)
    workflow := service.NewWorkflowProcessor(leadRepo, registry, cfg, zlog)
    processor := service.NewCampaignProcessor(campaignRepo, leadRepo, leadGen, workflow, publisher, cfg, zlog)

    leases := distlock.NewFactory(redisClient, conn, cfg.LeaseTTL)
    scheduler := service.NewScheduler(campaignRepo, processor, leases, cfg.SchedulerTickInterval, zlog)
    if err := scheduler.Start(); err != nil {
        zlog.Fatal("scheduler start failed", zap.Error(err))
    }
    defer scheduler.Stop()

    campaignService := &service.CampaignService{
        CampaignRepo: campaignRepo,
        LeadRepo:     leadRepo,
    }

    campaignController := &controller.CampaignController{
        CampaignService: campaignService,
    }

    campaignHandler := &handler.CampaignHandler{
        Repo:    leadRepo,
        Service: campaignService,
    }

    r := chi.NewRouter()

    // Campaign routes
    r.Post("/campaigns", campaignController.CreateCampaign)
    r.Get("/campaigns", campaignController.ListCampaigns)
    r.Get("/campaigns/{id}", campaignHandler.GetCampaignWithStats)
    r.Post("/campaigns/{id}/start", campaignController.StartCampaign)
    r.Post("/campaigns/{id}/pause", campaignController.PauseCampaign)
    r.Post("/campaigns/{id}/stop", campaignController.StopCampaign)
    r.Post("/campaigns/{id}/reset-error", campaignController.ResetError)
    r.Post("/campaigns/{id}/leads", campaignController.UploadLeads)
    r.Get("/campaign-leads/{leadId}/activities", campaignHandler.ListLeadActivities)

    log.Println("🚀 Server running on", cfg.HTTPAddr)
    log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
