// Package cache keeps the expensive read-side listings warm. The site's
// landing pages ask for the latest published version of every measure on
// each hit; the cache answers those without touching the database.
package cache

import (
	"context"

	"github.com/rdu/measures/internal/model"
)

const (
	latestPublishedKey = "measures:latest:published"
	latestDraftsKey    = "measures:latest:drafts"
)

func latestKey(includeDrafts bool) string {
	if includeDrafts {
		return latestDraftsKey
	}
	return latestPublishedKey
}

// MeasureCache caches the latest-version-of-all-measures listings. A miss
// returns (nil, nil); callers fall through to the store.
type MeasureCache interface {
	GetLatestMeasures(ctx context.Context, includeDrafts bool) ([]*model.MeasureVersion, error)
	SetLatestMeasures(ctx context.Context, includeDrafts bool, versions []*model.MeasureVersion) error
	// Invalidate drops both listings. Called on every publish and unpublish.
	Invalidate(ctx context.Context) error
}
