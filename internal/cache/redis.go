package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"netsentry/internal/models"
)

// SummaryCache caches live anomaly summaries in Redis and mirrors persisted
// events into a per-device sorted set for cheap recency queries. A nil
// *SummaryCache is valid and disables caching entirely.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection
func New(addr, password string, db int, ttl time.Duration) (*SummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         db,
		MaxRetries: 3,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &SummaryCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *SummaryCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func summaryKey(deviceID int64) string {
	return fmt.Sprintf("summary:%d", deviceID)
}

// GetSummary returns the cached summary for a device, or nil on miss
func (c *SummaryCache) GetSummary(ctx context.Context, deviceID int64) (*models.AnomalySummary, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, summaryKey(deviceID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached summary: %w", err)
	}
	var summary models.AnomalySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal cached summary: %w", err)
	}
	return &summary, nil
}

// PutSummary stores a summary with the cache TTL
func (c *SummaryCache) PutSummary(ctx context.Context, summary *models.AnomalySummary) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return c.client.Set(ctx, summaryKey(summary.DeviceID), data, c.ttl).Err()
}

// InvalidateSummary drops a device's cached summary, forcing the next query
// to recompute
func (c *SummaryCache) InvalidateSummary(ctx context.Context, deviceID int64) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, summaryKey(deviceID)).Err()
}

// RecordEvent mirrors a persisted anomaly event into the device's sorted
// set, scored by event time, kept for 24 hours
func (c *SummaryCache) RecordEvent(ctx context.Context, ev models.AnomalyEvent) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	listKey := fmt.Sprintf("anomaly_list:%d", ev.DeviceID)
	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, listKey, redis.Z{Score: float64(ev.Timestamp.Unix()), Member: string(data)})
	pipe.Expire(ctx, listKey, 24*time.Hour)
	_, err = pipe.Exec(ctx)
	return err
}

// RecentEvents returns up to limit of the most recent mirrored events for a
// device, newest first
func (c *SummaryCache) RecentEvents(ctx context.Context, deviceID int64, limit int) ([]models.AnomalyEvent, error) {
	if c == nil {
		return nil, nil
	}
	listKey := fmt.Sprintf("anomaly_list:%d", deviceID)
	raw, err := c.client.ZRevRange(ctx, listKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("recent cached events: %w", err)
	}

	events := make([]models.AnomalyEvent, 0, len(raw))
	for _, r := range raw {
		var ev models.AnomalyEvent
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
