package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"phillyrising/domain"
	"phillyrising/internal/metrics"
)

// AggregatorService runs the periodic feed ingestion loop: every interval
// it selects feeds due for polling and hands them to a resizable pool of
// workers. Feeds that keep failing are pushed back by the repository's
// backoff query, so one dead source never monopolizes the pool.
type AggregatorService struct {
	repo    domain.FeedRepository
	fetcher domain.Fetcher
	logger  *slog.Logger

	mu             sync.Mutex
	interval       time.Duration
	workers        int
	jobs           chan domain.Feed
	ctx            context.Context
	cancel         context.CancelFunc
	tickerStopChan chan struct{}
	started        bool
	workerCancels  []context.CancelFunc
}

func NewAggregator(repo domain.FeedRepository, fetcher domain.Fetcher, logger *slog.Logger, interval time.Duration, workers int) *AggregatorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregatorService{repo: repo, fetcher: fetcher, logger: logger, interval: interval, workers: workers}
}

func (a *AggregatorService) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return errors.New("aggregator already started")
	}
	a.ctx, a.cancel = context.WithCancel(ctx)
	if a.jobs == nil {
		a.jobs = make(chan domain.Feed)
	}
	a.tickerStopChan = make(chan struct{})
	a.workerCancels = nil
	startWorkersCount(a, a.workers)
	metrics.Workers.Set(float64(a.workers))
	go a.loop()
	a.started = true
	a.logger.Info("aggregator started", "interval", a.interval, "workers", a.workers)
	return nil
}

func (a *AggregatorService) Stop() error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	cancel := a.cancel
	stopCh := a.tickerStopChan
	cancels := append([]context.CancelFunc(nil), a.workerCancels...)
	a.started = false
	a.mu.Unlock()

	close(stopCh)
	cancel()
	for _, c := range cancels {
		c()
	}
	a.logger.Info("aggregator stopped")
	return nil
}

func (a *AggregatorService) SetInterval(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		a.interval = d
		return
	}
	close(a.tickerStopChan)
	a.tickerStopChan = make(chan struct{})
	a.interval = d
	a.logger.Info("fetch interval changed", "interval", d)
}

func (a *AggregatorService) Resize(workers int) error {
	if workers <= 0 {
		return errors.New("workers must be > 0")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.workers == workers {
		return nil
	}
	if !a.started {
		a.workers = workers
		return nil
	}
	if workers > a.workers {
		delta := workers - a.workers
		startWorkersCount(a, delta)
	} else {
		delta := a.workers - workers
		for i := 0; i < delta && len(a.workerCancels) > 0; i++ {
			idx := len(a.workerCancels) - 1
			c := a.workerCancels[idx]
			a.workerCancels = a.workerCancels[:idx]
			c()
		}
	}
	a.workers = workers
	metrics.Workers.Set(float64(workers))
	a.logger.Info("worker pool resized", "workers", workers)
	return nil
}

func (a *AggregatorService) CurrentInterval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interval
}

func (a *AggregatorService) CurrentWorkers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.workers
}

func (a *AggregatorService) loop() {
	for {
		a.mu.Lock()
		interval := a.interval
		stopCh := a.tickerStopChan
		jobs := a.jobs
		workers := a.workers
		a.mu.Unlock()

		ticker := time.NewTicker(interval)
		select {
		case <-a.ctx.Done():
			ticker.Stop()
			return
		case <-stopCh:
			ticker.Stop()
			continue
		case <-ticker.C:
		}

		metrics.FetchCycles.Inc()
		feeds, err := a.repo.GetStaleFeeds(a.ctx, interval, workers)
		if err != nil {
			a.logger.Error("stale feed query failed", "err", err)
			continue
		}
		for _, f := range feeds {
			select {
			case jobs <- f:
			case <-a.ctx.Done():
				return
			}
		}
	}
}

func startWorkersCount(a *AggregatorService, count int) {
	for i := 0; i < count; i++ {
		wctx, cancel := context.WithCancel(a.ctx)
		a.workerCancels = append(a.workerCancels, cancel)
		go worker(wctx, a.repo, a.fetcher, a.logger, a.jobs)
	}
}

func worker(ctx context.Context, repo domain.FeedRepository, fetcher domain.Fetcher, logger *slog.Logger, jobs <-chan domain.Feed) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-jobs:
			if !ok {
				return
			}
			processFeed(ctx, repo, fetcher, logger, f)
		}
	}
}

func processFeed(ctx context.Context, repo domain.FeedRepository, fetcher domain.Fetcher, logger *slog.Logger, f domain.Feed) {
	res, err := fetcher.Fetch(ctx, f)
	if err != nil {
		metrics.FetchFailures.Inc()
		logger.Warn("feed fetch failed", "feed", f.Name, "failures", f.Failures+1, "err", err)
		_ = repo.MarkFeedPolled(ctx, f.ID, domain.PollOutcome{Success: false})
		return
	}
	if res.NotModified {
		metrics.FetchNotModified.Inc()
		_ = repo.MarkFeedPolled(ctx, f.ID, domain.PollOutcome{Success: true, NotModified: true})
		return
	}
	for _, it := range res.Items {
		guid := it.GUID
		if guid == "" {
			guid = it.Link
		}
		err := repo.UpsertItem(ctx, domain.Item{
			FeedID:          f.ID,
			GUID:            guid,
			Title:           it.Title,
			Link:            it.Link,
			Summary:         it.Summary,
			Category:        f.Category,
			NeighborhoodTag: f.NeighborhoodTag,
			PublishedAt:     it.PublishedAt,
		})
		if err != nil {
			logger.Warn("item upsert failed", "feed", f.Name, "guid", guid, "err", err)
			continue
		}
		metrics.ItemsUpserted.Inc()
	}
	metrics.FetchOK.Inc()
	_ = repo.MarkFeedPolled(ctx, f.ID, domain.PollOutcome{
		Success:      true,
		ETag:         res.ETag,
		LastModified: res.LastModified,
	})
	logger.Debug("feed processed", "feed", f.Name, "items", len(res.Items))
}
