package cache

import (
	"context"

	"github.com/rdu/measures/internal/model"
)

var _ MeasureCache = (*NoopMeasureCache)(nil)

// NoopMeasureCache misses on every read, used in tests and when redis is not
// configured.
type NoopMeasureCache struct{}

func NewNoopMeasureCache() *NoopMeasureCache {
	return &NoopMeasureCache{}
}

func (n *NoopMeasureCache) GetLatestMeasures(ctx context.Context, includeDrafts bool) ([]*model.MeasureVersion, error) {
	return nil, nil
}

func (n *NoopMeasureCache) SetLatestMeasures(ctx context.Context, includeDrafts bool, versions []*model.MeasureVersion) error {
	return nil
}

func (n *NoopMeasureCache) Invalidate(ctx context.Context) error {
	return nil
}
