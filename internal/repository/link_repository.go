package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/axellelanca/redirector/internal/database"
	customerrors "github.com/axellelanca/redirector/internal/errors"
	"github.com/axellelanca/redirector/internal/models"
)

// LinkRepository defines the data access methods for links.
// Every error it returns wraps one of the sentinels of the errors package.
type LinkRepository interface {
	CreateLink(ctx context.Context, link *models.Link) error
	GetLinkByID(ctx context.Context, id string) (*models.Link, error)
	// ListLinks returns links newest first. A nil owner lists every link.
	ListLinks(ctx context.Context, ownerID *string) ([]models.Link, error)
	UpdateDestination(ctx context.Context, id, ownerID, destinationURL string) error
	// DeleteLink removes a link and its click events. A nil owner deletes regardless of ownership.
	DeleteLink(ctx context.Context, id string, ownerID *string) error
	IncrementClickCount(ctx context.Context, id string) error

	CounterTotals(ctx context.Context, ownerID string) (models.CounterTotals, error)
	BestLink(ctx context.Context, ownerID string) (*models.Link, error)
	TopLinks(ctx context.Context, ownerID string, limit int) ([]models.LinkSummary, error)
}

// GormLinkRepository is the gorm implementation of LinkRepository.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// CreateLink inserts a link. A taken id yields ErrConflict.
func (r *GormLinkRepository) CreateLink(ctx context.Context, link *models.Link) error {
	return database.Classify("create link", r.db.WithContext(ctx).Create(link).Error)
}

// GetLinkByID fetches a link by its slug.
func (r *GormLinkRepository) GetLinkByID(ctx context.Context, id string) (*models.Link, error) {
	var link models.Link
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		return nil, database.Classify("get link "+id, err)
	}
	return &link, nil
}

// ListLinks returns the links of ownerID, or all links when ownerID is nil.
func (r *GormLinkRepository) ListLinks(ctx context.Context, ownerID *string) ([]models.Link, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id ASC")
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	var links []models.Link
	if err := q.Find(&links).Error; err != nil {
		return nil, database.Classify("list links", err)
	}
	return links, nil
}

// UpdateDestination changes the destination of a link owned by ownerID.
func (r *GormLinkRepository) UpdateDestination(ctx context.Context, id, ownerID, destinationURL string) error {
	res := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("destination_url", destinationURL)
	if res.Error != nil {
		return database.Classify("update link "+id, res.Error)
	}
	if res.RowsAffected == 0 {
		return customerrors.ErrNotFound
	}
	return nil
}

// DeleteLink removes the link then its events in one transaction. The
// explicit event delete covers stores where foreign keys are not enforced.
func (r *GormLinkRepository) DeleteLink(ctx context.Context, id string, ownerID *string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ?", id)
		if ownerID != nil {
			q = q.Where("owner_id = ?", *ownerID)
		}
		res := q.Delete(&models.Link{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("link_id = ?", id).Delete(&models.ClickEvent{}).Error
	})
	return database.Classify("delete link "+id, err)
}

// IncrementClickCount bumps click_count by one. Zero affected rows means the
// link vanished since it was read.
func (r *GormLinkRepository) IncrementClickCount(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if res.Error != nil {
		return database.Classify("increment clicks "+id, res.Error)
	}
	if res.RowsAffected == 0 {
		return customerrors.ErrNotFound
	}
	return nil
}

// CounterTotals aggregates the denormalized counters of an owner's links.
func (r *GormLinkRepository) CounterTotals(ctx context.Context, ownerID string) (models.CounterTotals, error) {
	var totals models.CounterTotals
	err := r.db.WithContext(ctx).Model(&models.Link{}).
		Select("COUNT(*) AS links, " +
			"COALESCE(SUM(click_count), 0) AS total_clicks, " +
			"COALESCE(SUM(CASE WHEN click_count > 0 THEN 1 ELSE 0 END), 0) AS active_links").
		Where("owner_id = ?", ownerID).
		Scan(&totals).Error
	if err != nil {
		return models.CounterTotals{}, database.Classify("counter totals", err)
	}
	return totals, nil
}

// BestLink returns the most clicked link, oldest first on ties, or nil when
// the owner has no links.
func (r *GormLinkRepository) BestLink(ctx context.Context, ownerID string) (*models.Link, error) {
	var links []models.Link
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("click_count DESC").Order("created_at ASC").
		Limit(1).
		Find(&links).Error
	if err != nil {
		return nil, database.Classify("best link", err)
	}
	if len(links) == 0 {
		return nil, nil
	}
	return &links[0], nil
}

// TopLinks returns up to limit links by click_count, newest first on ties.
func (r *GormLinkRepository) TopLinks(ctx context.Context, ownerID string, limit int) ([]models.LinkSummary, error) {
	var rows []models.LinkSummary
	err := r.db.WithContext(ctx).Model(&models.Link{}).
		Select("id, destination_url, click_count AS clicks, created_at").
		Where("owner_id = ?", ownerID).
		Order("click_count DESC").Order("created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify("top links", err)
	}
	return rows, nil
}
