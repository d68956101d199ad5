// Package dashboard aggregates the registry-wide counts and recent
// uploads shown on the landing screen.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/notice"
	"golang.org/x/sync/errgroup"
)

// RecentUploads is how many of the registry's recent files are kept.
const RecentUploads = 5

type API interface {
	DashboardStats(ctx context.Context) (models.DashboardStats, error)
	ModelsPerFactory(ctx context.Context) ([]models.ModelsPerFactory, error)
	ModelsPerAlgorithm(ctx context.Context) ([]models.ModelsPerAlgorithm, error)
	RecentFiles(ctx context.Context) ([]models.ModelFile, error)
}

type Overview struct {
	Stats        models.DashboardStats
	PerFactory   []models.ModelsPerFactory
	PerAlgorithm []models.ModelsPerAlgorithm
	RecentFiles  []models.ModelFile
	LoadedAt     time.Time
}

type Dashboard struct {
	client   API
	notifier notice.Notifier

	mu      sync.RWMutex
	current *Overview
}

func New(client API, notifier notice.Notifier) *Dashboard {
	if notifier == nil {
		notifier = notice.Discard
	}
	return &Dashboard{client: client, notifier: notifier}
}

// Overview fetches every panel concurrently. If any request fails the
// previous overview is kept and the error returned.
func (d *Dashboard) Overview(ctx context.Context) (Overview, error) {
	var next Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := d.client.DashboardStats(gctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		next.Stats = stats
		return nil
	})
	g.Go(func() error {
		rows, err := d.client.ModelsPerFactory(gctx)
		if err != nil {
			return fmt.Errorf("models per factory: %w", err)
		}
		next.PerFactory = rows
		return nil
	})
	g.Go(func() error {
		rows, err := d.client.ModelsPerAlgorithm(gctx)
		if err != nil {
			return fmt.Errorf("models per algorithm: %w", err)
		}
		next.PerAlgorithm = rows
		return nil
	})
	g.Go(func() error {
		recent, err := d.client.RecentFiles(gctx)
		if err != nil {
			return fmt.Errorf("recent files: %w", err)
		}
		if len(recent) > RecentUploads {
			recent = recent[:RecentUploads]
		}
		next.RecentFiles = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Log.WithError(err).Warn("Dashboard fetch error")
		notice.Error(d.notifier, "Failed to load dashboard")
		return Overview{}, err
	}

	next.LoadedAt = time.Now()
	d.mu.Lock()
	d.current = &next
	d.mu.Unlock()
	return next, nil
}

// Current returns the last overview that loaded completely.
func (d *Dashboard) Current() (Overview, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.current == nil {
		return Overview{}, false
	}
	return *d.current, true
}
