package queue

import (
    "sync"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestInMemoryPublisherCollectsEvents(t *testing.T) {
    pub := NewInMemoryPublisher()
    campaignID := uuid.New()

    pub.PublishStats(StatsEvent{
        CampaignID: campaignID,
        TenantID:   uuid.New(),
        Stats:      map[string]int{"active": 3, "completed": 1},
        OccurredAt: time.Now(),
    })

    events := pub.Events()
    require.Len(t, events, 1)
    assert.Equal(t, campaignID, events[0].CampaignID)
    assert.Equal(t, 3, events[0].Stats["active"])
}

func TestInMemoryPublisherEventsReturnsCopy(t *testing.T) {
    pub := NewInMemoryPublisher()
    pub.PublishStats(StatsEvent{CampaignID: uuid.New()})

    events := pub.Events()
    events[0].CampaignID = uuid.Nil

    assert.NotEqual(t, uuid.Nil, pub.Events()[0].CampaignID)
}

func TestInMemoryPublisherIsConcurrencySafe(t *testing.T) {
    pub := NewInMemoryPublisher()

    var wg sync.WaitGroup
    for i := 0; i < 10; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for j := 0; j < 100; j++ {
                pub.PublishStats(StatsEvent{CampaignID: uuid.New()})
            }
        }()
    }
    wg.Wait()

    assert.Len(t, pub.Events(), 1000)
}
