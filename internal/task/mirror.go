package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/model"
)

// RedisMirror copies job snapshots to Redis under job:<id> so tools
// outside the process can follow jobs. It is never read back on start.
type RedisMirror struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

var _ Observer = (*RedisMirror)(nil)

type mirrorRecord struct {
	model.JobView
	Result *model.JobResult `json:"result,omitempty"`
}

// NewRedisMirror creates a mirror writing with the given TTL
func NewRedisMirror(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisMirror {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisMirror{redis: client, ttl: ttl, logger: logger}
}

func (m *RedisMirror) JobProgress(view model.JobView)  { m.save(view) }
func (m *RedisMirror) JobCompleted(view model.JobView) { m.save(view) }
func (m *RedisMirror) JobFailed(view model.JobView)    { m.save(view) }

func (m *RedisMirror) save(view model.JobView) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(mirrorRecord{JobView: view, Result: view.Result})
	if err != nil {
		m.logger.Warn().Err(err).Str("task_id", view.ID).Msg("failed to marshal job snapshot")
		return
	}
	if err := m.redis.Set(ctx, mirrorKey(view.ID), data, m.ttl).Err(); err != nil {
		m.logger.Warn().Err(err).Str("task_id", view.ID).Msg("failed to mirror job to redis")
	}
}

// Load reads a mirrored snapshot
func (m *RedisMirror) Load(ctx context.Context, id string) (model.JobView, error) {
	data, err := m.redis.Get(ctx, mirrorKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.JobView{}, ErrJobNotFound
	}
	if err != nil {
		return model.JobView{}, fmt.Errorf("failed to get job: %w", err)
	}

	var rec mirrorRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.JobView{}, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	rec.JobView.Result = rec.Result
	return rec.JobView, nil
}

func mirrorKey(id string) string {
	return fmt.Sprintf("job:%s", id)
}
