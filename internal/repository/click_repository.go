package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/axellelanca/redirector/internal/database"
	"github.com/axellelanca/redirector/internal/models"
)

// ClickScope restricts event queries to one link or to every link of an owner.
// LinkID takes precedence when both are set.
type ClickScope struct {
	OwnerID string
	LinkID  string
}

// OwnerScope scopes queries to all links of ownerID.
func OwnerScope(ownerID string) ClickScope { return ClickScope{OwnerID: ownerID} }

// LinkScope scopes queries to a single link.
func LinkScope(linkID string) ClickScope { return ClickScope{LinkID: linkID} }

// ClickRepository defines the data access methods for click events.
type ClickRepository interface {
	CreateClick(ctx context.Context, click *models.ClickEvent) error
	// CountClicks counts a link's events at or after since. A zero since counts all.
	CountClicks(ctx context.Context, linkID string, since time.Time) (int64, error)
	ClickTimesSince(ctx context.Context, scope ClickScope, since time.Time) ([]time.Time, error)
	RecentClicks(ctx context.Context, ownerID string, limit int) ([]models.RecentClick, error)
	TrafficSources(ctx context.Context, scope ClickScope, limit int) ([]models.SourceCount, error)
	TopReferrers(ctx context.Context, linkID string, limit int) ([]models.ReferrerCount, error)
}

// GormClickRepository is the gorm implementation of ClickRepository.
type GormClickRepository struct {
	db *gorm.DB
}

// NewClickRepository creates a GormClickRepository.
func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

// events returns a query over click_events aliased as c, restricted to scope.
func (r *GormClickRepository) events(ctx context.Context, scope ClickScope) *gorm.DB {
	q := r.db.WithContext(ctx).Table("click_events AS c")
	if scope.LinkID != "" {
		return q.Where("c.link_id = ?", scope.LinkID)
	}
	return q.Joins("JOIN links AS l ON l.id = c.link_id").Where("l.owner_id = ?", scope.OwnerID)
}

// CreateClick inserts one click event.
func (r *GormClickRepository) CreateClick(ctx context.Context, click *models.ClickEvent) error {
	return database.Classify("create click", r.db.WithContext(ctx).Create(click).Error)
}

func (r *GormClickRepository) CountClicks(ctx context.Context, linkID string, since time.Time) (int64, error) {
	q := r.events(ctx, LinkScope(linkID))
	if !since.IsZero() {
		q = q.Where("c.clicked_at >= ?", since.UTC())
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, database.Classify("count clicks", err)
	}
	return count, nil
}

// ClickTimesSince returns the timestamps of every event in scope at or after since.
// Bucketing happens in Go so the day boundaries do not depend on SQL dialect.
func (r *GormClickRepository) ClickTimesSince(ctx context.Context, scope ClickScope, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.events(ctx, scope).
		Where("c.clicked_at >= ?", since.UTC()).
		Pluck("c.clicked_at", &times).Error
	if err != nil {
		return nil, database.Classify("click times", err)
	}
	return times, nil
}

// RecentClicks returns the newest events across an owner's links.
func (r *GormClickRepository) RecentClicks(ctx context.Context, ownerID string, limit int) ([]models.RecentClick, error) {
	var rows []models.RecentClick
	err := r.events(ctx, OwnerScope(ownerID)).
		Select("c.link_id AS link_id, c.clicked_at AS clicked_at, " +
			"COALESCE(c.source_type, 'unknown') AS source_type, c.referrer_host AS referrer_host").
		Order("c.clicked_at DESC").Order("c.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify("recent clicks", err)
	}
	return rows, nil
}

// TrafficSources groups events by source type, coalescing NULL to unknown.
func (r *GormClickRepository) TrafficSources(ctx context.Context, scope ClickScope, limit int) ([]models.SourceCount, error) {
	var rows []models.SourceCount
	err := r.events(ctx, scope).
		Select("COALESCE(c.source_type, 'unknown') AS source_type, COUNT(*) AS clicks").
		Group("COALESCE(c.source_type, 'unknown')").
		Order("clicks DESC").Order("source_type ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify("traffic sources", err)
	}
	return rows, nil
}

// TopReferrers ranks the non-null referrer hosts of one link.
func (r *GormClickRepository) TopReferrers(ctx context.Context, linkID string, limit int) ([]models.ReferrerCount, error) {
	var rows []models.ReferrerCount
	err := r.events(ctx, LinkScope(linkID)).
		Select("c.referrer_host AS referrer_host, COUNT(*) AS clicks").
		Where("c.referrer_host IS NOT NULL").
		Group("c.referrer_host").
		Order("clicks DESC").Order("referrer_host ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify("top referrers", err)
	}
	return rows, nil
}
