package redisstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
)

const (
	DefaultStreamKey = "fixtures.ingested"
	defaultMaxLen    = 10000
)

// Message is the JSON document stored under the "data" field of each
// stream entry.
type Message struct {
	Event           string     `json:"event"`
	ProviderID      string     `json:"provider_id"`
	Provider        string     `json:"provider"`
	League          string     `json:"league"`
	HomeTeam        string     `json:"home_team"`
	AwayTeam        string     `json:"away_team"`
	KickoffAt       *time.Time `json:"kickoff_at"`
	Status          string     `json:"status"`
	StatusCanonical string     `json:"status_canonical"`
	Live            bool       `json:"live"`
	Finished        bool       `json:"finished"`
	CalledOff       bool       `json:"called_off"`
	PublishedAt     time.Time  `json:"published_at"`
}

// Publisher appends fixture changes to a capped Redis stream, one entry
// per change, in a single pipeline.
type Publisher struct {
	client    redis.UniversalClient
	streamKey string
	maxLen    int64
	now       func() time.Time
}

func NewPublisher(client redis.UniversalClient, streamKey string) *Publisher {
	streamKey = strings.TrimSpace(streamKey)
	if streamKey == "" {
		streamKey = DefaultStreamKey
	}
	return &Publisher{
		client:    client,
		streamKey: streamKey,
		maxLen:    defaultMaxLen,
		now:       time.Now,
	}
}

func (p *Publisher) PublishFixtureChanges(ctx context.Context, changes []usecase.FixtureChange) error {
	if len(changes) == 0 {
		return nil
	}

	publishedAt := p.now().UTC()
	pipe := p.client.Pipeline()
	for _, change := range changes {
		data, err := sonic.Marshal(buildMessage(change, publishedAt))
		if err != nil {
			return fmt.Errorf("marshal stream message: %w", err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.streamKey,
			MaxLen: p.maxLen,
			Approx: true,
			Values: map[string]any{"data": data},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec for stream %s: %w", p.streamKey, err)
	}
	return nil
}

func buildMessage(change usecase.FixtureChange, publishedAt time.Time) Message {
	item := change.Fixture
	return Message{
		Event:           change.Kind,
		ProviderID:      item.ProviderID,
		Provider:        item.Provider,
		League:          item.League,
		HomeTeam:        item.HomeTeam,
		AwayTeam:        item.AwayTeam,
		KickoffAt:       item.Kickoff,
		Status:          item.Status,
		StatusCanonical: string(item.StatusCanonical),
		Live:            item.StatusCanonical.IsLive(),
		Finished:        item.StatusCanonical.IsFinished(),
		CalledOff:       item.StatusCanonical.IsCancelledLike(),
		PublishedAt:     publishedAt,
	}
}
