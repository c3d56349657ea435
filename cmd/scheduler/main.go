// cmd/scheduler/main.go
package main

import (
    "log"
    "os"
    "os/signal"
    "syscall"

    "github.com/joho/godotenv"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/unclebandit/outreach-backend/internal/config"
    "github.com/unclebandit/outreach-backend/internal/db"
    "github.com/unclebandit/outreach-backend/internal/distlock"
    "github.com/unclebandit/outreach-backend/internal/leadsource"
    "github.com/unclebandit/outreach-backend/internal/logger"
    "github.com/unclebandit/outreach-backend/internal/model"
    "github.com/unclebandit/outreach-backend/internal/queue"
    "github.com/unclebandit/outreach-backend/internal/repository"
    "github.com/unclebandit/outreach-backend/internal/service"
)

// Headless deployment: runs the campaign execution engine without the HTTP
// API.
func main() {
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
        publisher = queue.NewInMemoryPublisher()
    }

    campaignRepo := &repository.CampaignRepository{DB: conn}
    leadRepo := &repository.LeadRepository{DB: conn}
    source := leadsource.NewHTTPLeadSource(cfg.LeadSourceBaseURL, cfg.LeadSourceAPIKey, "apollo")

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

    log.Println("Scheduler running, waiting for due campaigns...")

    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop

    scheduler.Stop()
}
