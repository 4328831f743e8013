// Package sink publishes finished runs to Redis so several benchmark hosts
// can report into one place.
package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"xferbench/internal/config"
	"xferbench/internal/model"
)

const (
	runsKey    = "runs"
	latestKey  = "latest"
	resultsKey = "results:"
)

// Entry is the JSON document pushed for each run.
type Entry struct {
	Run     model.Run              `json:"run"`
	Results []model.TransferResult `json:"results"`
}

// RedisPublisher pushes runs onto a list and keeps the latest one addressable.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher connects lazily; errors surface on the first Publish.
func NewRedisPublisher(cfg config.RedisConfig) *RedisPublisher {
	return &RedisPublisher{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: cfg.KeyPrefix,
	}
}

// Publish appends the run to <prefix>runs, stores its results under
// <prefix>results:<id> and points <prefix>latest at the same document.
func (p *RedisPublisher) Publish(ctx context.Context, run model.Run, items []model.TransferResult) error {
	if items == nil {
		items = []model.TransferResult{}
	}
	doc, err := json.Marshal(Entry{Run: run, Results: items})
	if err != nil {
		return err
	}

	pipe := p.client.TxPipeline()
	pipe.RPush(ctx, p.prefix+runsKey, doc)
	pipe.Set(ctx, p.prefix+resultsKey+run.ID, doc, 0)
	pipe.Set(ctx, p.prefix+latestKey, doc, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish run %s: %w", run.ID, err)
	}
	return nil
}

// Latest returns the most recently published run.
func (p *RedisPublisher) Latest(ctx context.Context) (Entry, error) {
	return p.get(ctx, p.prefix+latestKey)
}

// Lookup returns the run published under id.
func (p *RedisPublisher) Lookup(ctx context.Context, id string) (Entry, error) {
	return p.get(ctx, p.prefix+resultsKey+id)
}

// Runs returns up to n most recent runs, oldest first. n <= 0 returns all.
func (p *RedisPublisher) Runs(ctx context.Context, n int64) ([]Entry, error) {
	start := int64(0)
	if n > 0 {
		start = -n
	}
	raw, err := p.client.LRange(ctx, p.prefix+runsKey, start, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func (p *RedisPublisher) get(ctx context.Context, key string) (Entry, error) {
	var e Entry
	val, err := p.client.Get(ctx, key).Result()
	if err != nil {
		return e, err
	}
	err = json.Unmarshal([]byte(val), &e)
	return e, err
}
