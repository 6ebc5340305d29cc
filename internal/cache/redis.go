package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rdu/measures/internal/model"
	redis "github.com/redis/go-redis/v9"
)

// listingTTL bounds staleness if an invalidation is ever missed.
const listingTTL = time.Hour

var _ MeasureCache = (*RedisMeasureCache)(nil)

type RedisMeasureCache struct {
	client *redis.Client
}

func NewRedisMeasureCache(addr, password string) *RedisMeasureCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
		Protocol: 2,
	})

	return &RedisMeasureCache{client: client}
}

func (r *RedisMeasureCache) GetLatestMeasures(ctx context.Context, includeDrafts bool) ([]*model.MeasureVersion, error) {
	res := r.client.Get(ctx, latestKey(includeDrafts))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, nil
		}
		return nil, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, err
	}

	var versions []*model.MeasureVersion
	if err := json.Unmarshal(buf, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *RedisMeasureCache) SetLatestMeasures(ctx context.Context, includeDrafts bool, versions []*model.MeasureVersion) error {
	marshal, err := json.Marshal(versions)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, latestKey(includeDrafts), marshal, listingTTL).Err()
}

func (r *RedisMeasureCache) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, latestPublishedKey, latestDraftsKey).Err()
}
