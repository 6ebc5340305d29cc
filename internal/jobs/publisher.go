package jobs

import (
	"context"
	"time"

	"github.com/rdu/measures/internal/cache"
	"github.com/rdu/measures/internal/service"
	"github.com/rdu/measures/internal/store"
	"github.com/sirupsen/logrus"
)

var _ CronJob = (*Publisher)(nil)

// Publisher releases approved measure versions whose publication date has
// arrived. Versions without a date publish on the next tick after approval.
type Publisher struct {
	store store.Store
	pages *service.PageService
	cache cache.MeasureCache
	log   *logrus.Entry
}

func NewPublisher(store store.Store, pages *service.PageService, cache cache.MeasureCache) *Publisher {
	return &Publisher{
		store: store,
		pages: pages,
		cache: cache,
		log:   logrus.WithField("job", "publisher"),
	}
}

func (p *Publisher) Schedule() string {
	return "@every 1m"
}

func (p *Publisher) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	due, err := p.store.ListVersionsDueForPublication(ctx)
	if err != nil {
		p.log.Errorf("failed to list versions due for publication: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	published := 0
	for _, mv := range due {
		if _, err := p.pages.Publish(ctx, mv.ID, "publisher"); err != nil {
			p.log.WithField("guid", mv.GUID).Errorf("failed to publish version %s: %v", mv.Version, err)
			continue
		}
		published++
	}

	if published > 0 {
		if err := p.cache.Invalidate(ctx); err != nil {
			p.log.Errorf("failed to invalidate listing cache: %v", err)
		}
		p.log.Infof("published %d measure versions", published)
	}
}
