// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/porsk/github-stats/internal/cache"
	"github.com/porsk/github-stats/internal/domain"
	"github.com/porsk/github-stats/internal/gateway"
)

// Downloader produces the five repository statistics record sets, serving
// them from the cache store when possible and fetching through the gateway
// otherwise. All operations are synchronous; nothing here issues concurrent
// requests.
type Downloader struct {
	fetcher  gateway.Fetcher
	store    cache.Store
	repo     domain.RepositoryRef
	useCache bool
	logger   *log.Logger
}

// NewDownloader creates a Downloader for the given repository. When useCache
// is false, cached entries are never read; fetched data is still written so a
// later cache-enabled run can pick it up.
func NewDownloader(fetcher gateway.Fetcher, store cache.Store, repo domain.RepositoryRef, useCache bool, logger *log.Logger) (*Downloader, error) {
	if err := repo.Validate(); err != nil {
		return nil, err
	}
	return &Downloader{
		fetcher:  fetcher,
		store:    store,
		repo:     repo,
		useCache: useCache,
		logger:   logger,
	}, nil
}

// Repository returns the repository this downloader is bound to.
func (d *Downloader) Repository() domain.RepositoryRef {
	return d.repo
}

// readCache reports whether the entry was served from the cache. force
// bypasses the read; the entry is then refetched and overwritten.
func (d *Downloader) readCache(dataset string, force bool, into any) (bool, error) {
	if !d.useCache || force {
		return false, nil
	}
	hit, err := d.store.Get(d.repo, dataset, into)
	if err != nil {
		return false, err
	}
	if hit {
		d.logger.Printf("Cache hit for %s/%s.", d.repo, dataset)
	} else {
		d.logger.Printf("Cache miss for %s/%s.", d.repo, dataset)
	}
	return hit, nil
}

// ContributorStats returns per-contributor commit totals and weekly activity.
// One fetch fills both tables, and a cache hit requires both entries.
func (d *Downloader) ContributorStats(ctx context.Context, force bool) (*domain.ContributorStats, error) {
	var stats domain.ContributorStats
	totalsHit, err := d.readCache(domain.DatasetTotalContributions, force, &stats.Totals)
	if err != nil {
		return nil, err
	}
	weeklyHit, err := d.readCache(domain.DatasetWeeklyContributions, force, &stats.Weekly)
	if err != nil {
		return nil, err
	}
	if totalsHit && weeklyHit {
		return &stats, nil
	}

	fresh, err := d.fetcher.FetchContributorStats(ctx, d.repo)
	if err != nil {
		return nil, err
	}
	if err := d.store.Put(d.repo, domain.DatasetTotalContributions, fresh.Totals); err != nil {
		return nil, err
	}
	if err := d.store.Put(d.repo, domain.DatasetWeeklyContributions, fresh.Weekly); err != nil {
		return nil, err
	}
	return fresh, nil
}

// CodeFrequency returns the weekly additions/deletions aggregate for the
// whole repository.
func (d *Downloader) CodeFrequency(ctx context.Context, force bool) ([]domain.CodeFrequency, error) {
	var cached []domain.CodeFrequency
	hit, err := d.readCache(domain.DatasetCodeFrequency, force, &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		return cached, nil
	}

	fresh, err := d.fetcher.FetchCodeFrequency(ctx, d.repo)
	if err != nil {
		return nil, err
	}
	if err := d.store.Put(d.repo, domain.DatasetCodeFrequency, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// OpenIssues returns every currently open issue of the repository.
func (d *Downloader) OpenIssues(ctx context.Context, force bool) ([]domain.Issue, error) {
	var cached []domain.Issue
	hit, err := d.readCache(domain.DatasetIssues, force, &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		return cached, nil
	}

	fresh, err := d.fetcher.FetchOpenIssues(ctx, d.repo)
	if err != nil {
		return nil, err
	}
	if err := d.store.Put(d.repo, domain.DatasetIssues, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// CommitActivity returns the last 52 weeks of commit counts by weekday.
func (d *Downloader) CommitActivity(ctx context.Context, force bool) ([]domain.CommitActivity, error) {
	var cached []domain.CommitActivity
	hit, err := d.readCache(domain.DatasetCommitActivity, force, &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		return cached, nil
	}

	fresh, err := d.fetcher.FetchCommitActivity(ctx, d.repo)
	if err != nil {
		return nil, err
	}
	if err := d.store.Put(d.repo, domain.DatasetCommitActivity, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Stargazers returns every user that starred the repository, in the order
// the API reports them (starring date ascending).
func (d *Downloader) Stargazers(ctx context.Context, force bool) ([]domain.Stargazer, error) {
	var cached []domain.Stargazer
	hit, err := d.readCache(domain.DatasetStargazers, force, &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		return cached, nil
	}

	fresh, err := d.fetcher.FetchStargazers(ctx, d.repo)
	if err != nil {
		return nil, err
	}
	if err := d.store.Put(d.repo, domain.DatasetStargazers, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// ClearCache removes every cached record set of the repository.
func (d *Downloader) ClearCache() error {
	if err := d.store.Clear(d.repo); err != nil {
		return fmt.Errorf("clearing downloader cache: %w", err)
	}
	d.logger.Printf("Cleared cache for %s.", d.repo)
	return nil
}
