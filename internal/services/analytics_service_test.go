package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customerrors "github.com/axellelanca/redirector/internal/errors"
	"github.com/axellelanca/redirector/internal/logger"
	"github.com/axellelanca/redirector/internal/models"
	"github.com/axellelanca/redirector/internal/services"
)

func TestDailySeries(t *testing.T) {
	westOfUTC := time.FixedZone("X", -2*3600)
	times := []time.Time{
		fixedNow,
		fixedNow.Add(-2 * time.Hour),
		fixedNow.AddDate(0, 0, -6),
		fixedNow.AddDate(0, 0, -7), // outside the window
		time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 15, 23, 30, 0, 0, westOfUTC), // the 16th in UTC
	}

	series := services.DailySeries(times, fixedNow)

	require.Len(t, series, 7)
	assert.Equal(t, []models.DailyClicks{
		{Date: "2026-10-12", Clicks: 2},
		{Date: "2026-10-13", Clicks: 0},
		{Date: "2026-10-14", Clicks: 0},
		{Date: "2026-10-15", Clicks: 0},
		{Date: "2026-10-16", Clicks: 1},
		{Date: "2026-10-17", Clicks: 0},
		{Date: "2026-10-18", Clicks: 2},
	}, series)

	for i := 1; i < len(series); i++ {
		assert.Less(t, series[i-1].Date, series[i].Date)
	}
}

func TestDailySeries_Empty(t *testing.T) {
	series := services.DailySeries(nil, fixedNow)
	require.Len(t, series, 7)
	for _, day := range series {
		assert.Zero(t, day.Clicks)
	}
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), services.SeriesStart(fixedNow))
}

func TestAverageClicks(t *testing.T) {
	assert.Zero(t, services.AverageClicks(0, 0))
	assert.Zero(t, services.AverageClicks(5, 0))
	assert.InDelta(t, 2.3, services.AverageClicks(7, 3), 1e-9)
	assert.InDelta(t, 0.5, services.AverageClicks(1, 2), 1e-9)
	assert.InDelta(t, 4.0, services.AverageClicks(12, 3), 1e-9)
}

func TestGetAccountStats_NoLinks(t *testing.T) {
	e := newEnv(t)
	svc := services.NewAnalyticsService(e.links, e.clicks, logger.NewNop(), services.WithAnalyticsClock(clock))

	stats := svc.GetAccountStats(context.Background(), "alice")

	assert.Equal(t, models.AccountTotals{}, stats.Totals)
	assert.Nil(t, stats.Totals.BestLinkID)
	assert.Len(t, stats.ClicksLast7Days, 7)
	assert.NotNil(t, stats.TopLinks)
	assert.Empty(t, stats.TopLinks)
	assert.Empty(t, stats.RecentClicks)
	assert.Empty(t, stats.TrafficSources)
}

func TestGetAccountStats(t *testing.T) {
	e := newEnv(t)
	svc := services.NewAnalyticsService(e.links, e.clicks, logger.NewNop(), services.WithAnalyticsClock(clock))
	google := strPtr("www.google.com")

	for i := 0; i < 7; i++ {
		e.seedLink(t, fmt.Sprintf("l%d", i), "alice", int64(i), fixedNow.Add(-time.Duration(i)*time.Hour))
	}
	e.seedLink(t, "bob", "bob", 50, fixedNow)

	e.seedClick(t, "l6", fixedNow.Add(-1*time.Minute), "search", google)
	e.seedClick(t, "l6", fixedNow.Add(-2*time.Minute), "search", google)
	e.seedClick(t, "l5", fixedNow.Add(-3*time.Minute), "social", strPtr("twitter.com"))
	e.seedClick(t, "l5", fixedNow.AddDate(0, 0, -3), "direct", nil)
	e.seedClick(t, "l4", fixedNow.AddDate(0, 0, -6), "referral", strPtr("blog.example"))
	e.seedClick(t, "l4", fixedNow.AddDate(0, 0, -20), "direct", nil)
	for i := 0; i < 5; i++ {
		e.seedClick(t, "l3", fixedNow.AddDate(0, 0, -10).Add(time.Duration(i)*time.Minute), "search", google)
	}
	e.seedClick(t, "bob", fixedNow, "search", google)

	stats := svc.GetAccountStats(context.Background(), "alice")

	assert.Equal(t, int64(7), stats.Totals.Links)
	assert.Equal(t, int64(21), stats.Totals.TotalClicks)
	assert.Equal(t, int64(6), stats.Totals.ActiveLinks)
	assert.InDelta(t, 3.0, stats.Totals.AvgClicksPerLink, 1e-9)
	require.NotNil(t, stats.Totals.BestLinkID)
	assert.Equal(t, "l6", *stats.Totals.BestLinkID)
	assert.Equal(t, int64(6), stats.Totals.BestLinkClicks)

	var weekTotal int64
	for _, day := range stats.ClicksLast7Days {
		weekTotal += day.Clicks
	}
	assert.Equal(t, int64(5), weekTotal)
	assert.Equal(t, int64(3), stats.ClicksLast7Days[6].Clicks)
	assert.Equal(t, int64(1), stats.ClicksLast7Days[0].Clicks)

	require.Len(t, stats.TopLinks, 5)
	assert.Equal(t, "l6", stats.TopLinks[0].ID)
	assert.Equal(t, "l2", stats.TopLinks[4].ID)

	require.Len(t, stats.RecentClicks, 8)
	assert.Equal(t, "l6", stats.RecentClicks[0].LinkID)
	assert.Equal(t, "search", stats.RecentClicks[0].SourceType)

	require.NotEmpty(t, stats.TrafficSources)
	assert.Equal(t, models.SourceCount{SourceType: "search", Clicks: 7}, stats.TrafficSources[0])
	var sourceTotal int64
	for _, s := range stats.TrafficSources {
		sourceTotal += s.Clicks
	}
	assert.Equal(t, int64(11), sourceTotal, "bob's click is not counted")
}

func TestGetAccountStats_DegradesPerSection(t *testing.T) {
	e := newEnv(t)
	e.seedLink(t, "promo", "alice", 3, fixedNow)
	schema := &countingSchema{}
	missing := fmt.Errorf("query: %w", customerrors.ErrSchemaMissing)

	svc := services.NewAnalyticsService(
		brokenLinks{LinkRepository: e.links, readErr: missing},
		brokenClicks{err: missing},
		logger.NewNop(),
		services.WithAnalyticsClock(clock),
		services.WithAnalyticsSchema(schema),
	)

	stats := svc.GetAccountStats(context.Background(), "alice")

	assert.Equal(t, models.AccountTotals{}, stats.Totals)
	require.Len(t, stats.ClicksLast7Days, 7)
	assert.Equal(t, "2026-10-12", stats.ClicksLast7Days[0].Date)
	assert.Empty(t, stats.TopLinks)
	assert.Empty(t, stats.RecentClicks)
	assert.Empty(t, stats.TrafficSources)
	assert.Positive(t, schema.calls.Load())
}

func TestGetLinkStats_ForeignEqualsMissing(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedLink(t, "promo", "alice", 0, fixedNow)
	svc := services.NewAnalyticsService(e.links, e.clicks, logger.NewNop(), services.WithAnalyticsClock(clock))

	_, foreignErr := svc.GetLinkStats(ctx, "mallory", "promo")
	_, missingErr := svc.GetLinkStats(ctx, "mallory", "nope")
	_, emptyOwnerErr := svc.GetLinkStats(ctx, "", "promo")

	assert.ErrorIs(t, foreignErr, customerrors.ErrNotFound)
	assert.Equal(t, missingErr, foreignErr)
	assert.ErrorIs(t, emptyOwnerErr, customerrors.ErrNotFound)
}

func TestGetLinkStats_OwnershipStorageErrorIsNotFound(t *testing.T) {
	e := newEnv(t)
	e.seedLink(t, "promo", "alice", 0, fixedNow)
	svc := services.NewAnalyticsService(
		brokenLinks{LinkRepository: e.links, getErr: customerrors.ErrStorage},
		e.clicks, logger.NewNop(),
	)

	_, err := svc.GetLinkStats(context.Background(), "alice", "promo")
	assert.ErrorIs(t, err, customerrors.ErrNotFound)
}

func TestGetLinkStats(t *testing.T) {
	e := newEnv(t)
	svc := services.NewAnalyticsService(e.links, e.clicks, logger.NewNop(), services.WithAnalyticsClock(clock))

	// counter deliberately out of step with the event log
	e.seedLink(t, "promo", "alice", 100, fixedNow.AddDate(0, 0, -30))
	e.seedLink(t, "other", "alice", 0, fixedNow)

	google, twitter, blog := strPtr("www.google.com"), strPtr("twitter.com"), strPtr("blog.example")
	e.seedClick(t, "promo", fixedNow.Add(-1*time.Hour), "search", google)
	e.seedClick(t, "promo", fixedNow.Add(-5*time.Hour), "search", google)
	e.seedClick(t, "promo", fixedNow.Add(-30*time.Hour), "social", twitter)
	e.seedClick(t, "promo", fixedNow.AddDate(0, 0, -5), "referral", blog)
	e.seedClick(t, "promo", fixedNow.AddDate(0, 0, -12), "direct", nil)
	e.seedClick(t, "other", fixedNow, "search", google)

	stats, err := svc.GetLinkStats(context.Background(), "alice", "promo")
	require.NoError(t, err)

	assert.Equal(t, "promo", stats.Link.ID)
	assert.Equal(t, models.LinkTotals{Clicks: 5, Last24h: 2, Last7d: 4}, stats.Totals)

	require.Len(t, stats.ClicksLast7Days, 7)
	var week int64
	for _, d := range stats.ClicksLast7Days {
		week += d.Clicks
	}
	assert.Equal(t, int64(4), week)

	assert.Equal(t, []models.SourceCount{
		{SourceType: "search", Clicks: 2},
		{SourceType: "direct", Clicks: 1},
		{SourceType: "referral", Clicks: 1},
		{SourceType: "social", Clicks: 1},
	}, stats.TrafficSources)

	assert.Equal(t, []models.ReferrerCount{
		{ReferrerHost: "www.google.com", Clicks: 2},
		{ReferrerHost: "blog.example", Clicks: 1},
		{ReferrerHost: "twitter.com", Clicks: 1},
	}, stats.TopReferrers)
}

func TestGetLinkStats_DegradedSectionsStillReturn(t *testing.T) {
	e := newEnv(t)
	e.seedLink(t, "promo", "alice", 2, fixedNow)
	svc := services.NewAnalyticsService(e.links, brokenClicks{err: customerrors.ErrStorage}, logger.NewNop(),
		services.WithAnalyticsClock(clock))

	stats, err := svc.GetLinkStats(context.Background(), "alice", "promo")
	require.NoError(t, err)
	assert.Equal(t, models.LinkTotals{}, stats.Totals)
	assert.Len(t, stats.ClicksLast7Days, 7)
	assert.Empty(t, stats.TrafficSources)
	assert.Empty(t, stats.TopReferrers)
}
