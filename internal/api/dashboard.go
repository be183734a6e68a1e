package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"offertory/internal/core"
)

const (
	DefaultPeriodDays   = 30
	DefaultRecentLimit  = 10
	DefaultTrendsMonths = 12
)

// Overview is everything the dashboard shows at once.
type Overview struct {
	Stats      core.DashboardStats
	Recent     []core.CollectionSummary
	Statistics core.CollectionStatistics
	Verse      core.BibleVerse
}

// Dashboard reads are cached until Purge or the TTL expires.

func (c *Client) DashboardStats(ctx context.Context, periodDays int) (core.DashboardStats, error) {
	if periodDays <= 0 {
		periodDays = DefaultPeriodDays
	}
	var out core.DashboardStats
	err := c.cached(ctx, request{
		method: http.MethodGet,
		path:   "/api/dashboard/stats",
		query:  url.Values{"period_days": {strconv.Itoa(periodDays)}},
	}, &out)
	return out, err
}

func (c *Client) RecentCollections(ctx context.Context, limit int) ([]core.CollectionSummary, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	var out []core.CollectionSummary
	err := c.cached(ctx, request{
		method: http.MethodGet,
		path:   "/api/dashboard/recent-collections",
		query:  limitQuery(limit),
	}, &out)
	return out, err
}

func (c *Client) CollectionStatistics(ctx context.Context, start, end string) (core.CollectionStatistics, error) {
	var out core.CollectionStatistics
	err := c.cached(ctx, request{
		method: http.MethodGet,
		path:   "/api/dashboard/collection-statistics",
		query:  rangeQuery(start, end),
	}, &out)
	return out, err
}

// CollectionTrends is the backend's month-by-month series. Its shape is
// owned by the backend.
type CollectionTrends map[string]any

func (c *Client) CollectionTrends(ctx context.Context, months int) (CollectionTrends, error) {
	if months <= 0 {
		months = DefaultTrendsMonths
	}
	var out CollectionTrends
	err := c.cached(ctx, request{
		method: http.MethodGet,
		path:   "/api/dashboard/collection-trends",
		query:  url.Values{"months": {strconv.Itoa(months)}},
	}, &out)
	return out, err
}

func (c *Client) BibleVerse(ctx context.Context) (core.BibleVerse, error) {
	var out core.BibleVerse
	err := c.cached(ctx, request{method: http.MethodGet, path: "/api/bible-verse"}, &out)
	return out, err
}

// DashboardOverview fetches the dashboard panels concurrently. The first
// failure cancels the rest.
func (c *Client) DashboardOverview(ctx context.Context, periodDays int) (Overview, error) {
	var ov Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ov.Stats, err = c.DashboardStats(ctx, periodDays)
		return err
	})
	g.Go(func() (err error) {
		ov.Recent, err = c.RecentCollections(ctx, DefaultRecentLimit)
		return err
	})
	g.Go(func() (err error) {
		ov.Statistics, err = c.CollectionStatistics(ctx, "", "")
		return err
	})
	g.Go(func() (err error) {
		ov.Verse, err = c.BibleVerse(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return ov, nil
}
