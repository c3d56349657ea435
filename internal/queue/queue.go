package queue

import (
    "encoding/json"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/streadway/amqp"
    "go.uber.org/zap"
)

// StatsEvent is published whenever a campaign run changes lead stats.
// Consumers stream it to clients; delivery is best-effort.
type StatsEvent struct {
    CampaignID uuid.UUID      `json:"campaign_id"`
    TenantID   uuid.UUID      `json:"tenant_id"`
    Stats      map[string]int `json:"stats"`
    OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher is the event/notification port. Implementations must never let
// a publish failure reach the caller; execution correctness does not depend
// on events going out.
type Publisher interface {
    PublishStats(event StatsEvent)
}

// ====================== AMQP ======================

const eventsQueue = "campaign_events"

// AMQPPublisher publishes stats events to a durable RabbitMQ queue.
type AMQPPublisher struct {
    ch  *amqp.Channel
    log *zap.Logger
}

// NewAMQPPublisher dials RabbitMQ and declares the events queue.
func NewAMQPPublisher(url string, log *zap.Logger) (*AMQPPublisher, error) {
    conn, err := amqp.Dial(url)
    if err != nil {
        return nil, err
    }

    ch, err := conn.Channel()
    if err != nil {
        conn.Close()
        return nil, err
    }

    _, err = ch.QueueDeclare(
        eventsQueue,
        true,  // durable
        false, // delete when unused
        false, // exclusive
        false, // no-wait
        nil,   // arguments
    )
    if err != nil {
        ch.Close()
        conn.Close()
        return nil, err
    }

    return &AMQPPublisher{ch: ch, log: log}, nil
}

// PublishStats is fire-and-forget: failures are logged and swallowed.
func (p *AMQPPublisher) PublishStats(event StatsEvent) {
    body, err := json.Marshal(event)
    if err != nil {
        p.log.Warn("failed to marshal stats event", zap.Error(err))
        return
    }

    err = p.ch.Publish(
        "",
        eventsQueue,
        false,
        false,
        amqp.Publishing{
            ContentType: "application/json",
            Body:        body,
        },
    )
    if err != nil {
        p.log.Warn("failed to publish stats event",
            zap.String("campaign_id", event.CampaignID.String()),
            zap.Error(err))
    }
}

// ====================== In-memory ======================

// InMemoryPublisher collects events; used in tests and when no broker is
// configured.
type InMemoryPublisher struct {
    mu     sync.Mutex
    events []StatsEvent
}

func NewInMemoryPublisher() *InMemoryPublisher {
    return &InMemoryPublisher{}
}

func (p *InMemoryPublisher) PublishStats(event StatsEvent) {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, event)
}

// Events returns a copy of everything published so far.
func (p *InMemoryPublisher) Events() []StatsEvent {
    p.mu.Lock()
    defer p.mu.Unlock()
    out := make([]StatsEvent, len(p.events))
    copy(out, p.events)
    return out
}

var _ Publisher = (*AMQPPublisher)(nil)
var _ Publisher = (*InMemoryPublisher)(nil)
