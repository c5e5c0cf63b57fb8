package services

import (
	"context"
	"errors"
	"math"
	"time"

	customerrors "github.com/axellelanca/redirector/internal/errors"
	"github.com/axellelanca/redirector/internal/logger"
	"github.com/axellelanca/redirector/internal/metrics"
	"github.com/axellelanca/redirector/internal/models"
	"github.com/axellelanca/redirector/internal/repository"
)

const (
	seriesDays          = 7
	topLinksLimit       = 5
	recentClicksLimit   = 8
	trafficSourcesLimit = 6
	topReferrersLimit   = 6

	dayLayout = "2006-01-02"
)

// AnalyticsService computes the dashboard views from the links table and the
// click event log. Reads fail closed: a section whose query errors is
// replaced by its empty value and logged.
type AnalyticsService struct {
	links   repository.LinkRepository
	clicks  repository.ClickRepository
	schema  SchemaEnsurer
	metrics *metrics.Metrics
	log     logger.Logger
	now     Clock
}

// AnalyticsOption configures optional AnalyticsService collaborators.
type AnalyticsOption func(*AnalyticsService)

// WithAnalyticsSchema enables lazy schema initialization on a missing table.
func WithAnalyticsSchema(s SchemaEnsurer) AnalyticsOption {
	return func(a *AnalyticsService) { a.schema = s }
}

// WithAnalyticsMetrics counts degraded sections.
func WithAnalyticsMetrics(m *metrics.Metrics) AnalyticsOption {
	return func(a *AnalyticsService) { a.metrics = m }
}

// WithAnalyticsClock overrides "now" for windows and day buckets.
func WithAnalyticsClock(now Clock) AnalyticsOption {
	return func(a *AnalyticsService) { a.now = now }
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(links repository.LinkRepository, clicks repository.ClickRepository, log logger.Logger, opts ...AnalyticsOption) *AnalyticsService {
	a := &AnalyticsService{
		links:  links,
		clicks: clicks,
		log:    log,
		now:    utcNow,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetAccountStats aggregates every link of ownerID. It never fails.
func (a *AnalyticsService) GetAccountStats(ctx context.Context, ownerID string) models.Stats {
	now := a.now().UTC()
	scope := repository.OwnerScope(ownerID)

	stats := models.Stats{
		ClicksLast7Days: DailySeries(nil, now),
		TopLinks:        []models.LinkSummary{},
		RecentClicks:    []models.RecentClick{},
		TrafficSources:  []models.SourceCount{},
	}

	if totals, err := a.accountTotals(ctx, ownerID); err != nil {
		a.degrade(ctx, "totals", err)
	} else {
		stats.Totals = totals
	}

	if times, err := a.clicks.ClickTimesSince(ctx, scope, SeriesStart(now)); err != nil {
		a.degrade(ctx, "clicksLast7Days", err)
	} else {
		stats.ClicksLast7Days = DailySeries(times, now)
	}

	if top, err := a.links.TopLinks(ctx, ownerID, topLinksLimit); err != nil {
		a.degrade(ctx, "topLinks", err)
	} else if top != nil {
		stats.TopLinks = top
	}

	if recent, err := a.clicks.RecentClicks(ctx, ownerID, recentClicksLimit); err != nil {
		a.degrade(ctx, "recentClicks", err)
	} else if recent != nil {
		stats.RecentClicks = recent
	}

	if sources, err := a.clicks.TrafficSources(ctx, scope, trafficSourcesLimit); err != nil {
		a.degrade(ctx, "trafficSources", err)
	} else if sources != nil {
		stats.TrafficSources = sources
	}

	return stats
}

func (a *AnalyticsService) accountTotals(ctx context.Context, ownerID string) (models.AccountTotals, error) {
	counters, err := a.links.CounterTotals(ctx, ownerID)
	if err != nil {
		return models.AccountTotals{}, err
	}
	best, err := a.links.BestLink(ctx, ownerID)
	if err != nil {
		return models.AccountTotals{}, err
	}

	totals := models.AccountTotals{
		Links:            counters.Links,
		TotalClicks:      counters.TotalClicks,
		ActiveLinks:      counters.ActiveLinks,
		AvgClicksPerLink: AverageClicks(counters.TotalClicks, counters.Links),
	}
	if best != nil {
		id := best.ID
		totals.BestLinkID = &id
		totals.BestLinkClicks = best.ClickCount
	}
	return totals, nil
}

// GetLinkStats returns the detail view of one link. A missing link and a
// link owned by someone else both yield ErrNotFound.
func (a *AnalyticsService) GetLinkStats(ctx context.Context, ownerID, linkID string) (*models.LinkStats, error) {
	link, err := a.links.GetLinkByID(ctx, linkID)
	if err != nil {
		if !errors.Is(err, customerrors.ErrNotFound) {
			a.degrade(ctx, "ownership", err)
		}
		return nil, customerrors.ErrNotFound
	}
	if !link.OwnedBy(ownerID) {
		return nil, customerrors.ErrNotFound
	}

	now := a.now().UTC()
	scope := repository.LinkScope(linkID)

	stats := &models.LinkStats{
		Link:            *link,
		ClicksLast7Days: DailySeries(nil, now),
		TrafficSources:  []models.SourceCount{},
		TopReferrers:    []models.ReferrerCount{},
	}

	if totals, err := a.linkTotals(ctx, linkID, now); err != nil {
		a.degrade(ctx, "totals", err)
	} else {
		stats.Totals = totals
	}

	if times, err := a.clicks.ClickTimesSince(ctx, scope, SeriesStart(now)); err != nil {
		a.degrade(ctx, "clicksLast7Days", err)
	} else {
		stats.ClicksLast7Days = DailySeries(times, now)
	}

	if sources, err := a.clicks.TrafficSources(ctx, scope, trafficSourcesLimit); err != nil {
		a.degrade(ctx, "trafficSources", err)
	} else if sources != nil {
		stats.TrafficSources = sources
	}

	if refs, err := a.clicks.TopReferrers(ctx, linkID, topReferrersLimit); err != nil {
		a.degrade(ctx, "topReferrers", err)
	} else if refs != nil {
		stats.TopReferrers = refs
	}

	return stats, nil
}

// linkTotals counts from the event log rather than trusting click_count.
func (a *AnalyticsService) linkTotals(ctx context.Context, linkID string, now time.Time) (models.LinkTotals, error) {
	all, err := a.clicks.CountClicks(ctx, linkID, time.Time{})
	if err != nil {
		return models.LinkTotals{}, err
	}
	day, err := a.clicks.CountClicks(ctx, linkID, now.Add(-24*time.Hour))
	if err != nil {
		return models.LinkTotals{}, err
	}
	week, err := a.clicks.CountClicks(ctx, linkID, now.Add(-seriesDays*24*time.Hour))
	if err != nil {
		return models.LinkTotals{}, err
	}
	return models.LinkTotals{Clicks: all, Last24h: day, Last7d: week}, nil
}

func (a *AnalyticsService) degrade(ctx context.Context, section string, err error) {
	a.metrics.Degraded(section)
	a.log.Warn("analytics section degraded",
		logger.String("section", section),
		logger.Error(err),
	)
	ensureSchemaOn(ctx, a.schema, err)
}

// AverageClicks is total/links rounded to one decimal, or 0 without links.
func AverageClicks(total, links int64) float64 {
	if links == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(links)*10) / 10
}

// SeriesStart is midnight UTC six days before now, the first bucket of the series.
func SeriesStart(now time.Time) time.Time {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -(seriesDays - 1))
}

// DailySeries buckets click times into the seven UTC days ending today,
// oldest first. Days without clicks are present with a zero count and times
// outside the window are ignored.
func DailySeries(times []time.Time, now time.Time) []models.DailyClicks {
	start := SeriesStart(now)
	series := make([]models.DailyClicks, seriesDays)
	index := make(map[string]int, seriesDays)
	for i := range series {
		day := start.AddDate(0, 0, i).Format(dayLayout)
		series[i].Date = day
		index[day] = i
	}
	for _, t := range times {
		if i, ok := index[t.UTC().Format(dayLayout)]; ok {
			series[i].Clicks++
		}
	}
	return series
}
