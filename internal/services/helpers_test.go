package services_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/axellelanca/redirector/internal/database"
	"github.com/axellelanca/redirector/internal/models"
	"github.com/axellelanca/redirector/internal/repository"
)

// fixedNow is a Sunday afternoon; the series window starts Monday 2026-10-12.
var fixedNow = time.Date(2026, time.October, 18, 15, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type env struct {
	db     *gorm.DB
	links  *repository.GormLinkRepository
	clicks *repository.GormClickRepository
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := openDB(t)
	require.NoError(t, database.AutoMigrate(context.Background(), db))
	return env{
		db:     db,
		links:  repository.NewLinkRepository(db),
		clicks: repository.NewClickRepository(db),
	}
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func strPtr(s string) *string { return &s }

func (e env) seedLink(t *testing.T, id, owner string, clicks int64, createdAt time.Time) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Link{
		ID:             id,
		DestinationURL: "https://example.com/" + id,
		OwnerID:        strPtr(owner),
		CreatedAt:      createdAt.UTC(),
		ClickCount:     clicks,
	}).Error)
}

func (e env) seedClick(t *testing.T, linkID string, at time.Time, source string, referrer *string) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.ClickEvent{
		LinkID:       linkID,
		ClickedAt:    at.UTC(),
		SourceType:   strPtr(source),
		ReferrerHost: referrer,
	}).Error)
}

func (e env) events(t *testing.T, linkID string) []models.ClickEvent {
	t.Helper()
	var out []models.ClickEvent
	require.NoError(t, e.db.Where("link_id = ?", linkID).Order("id").Find(&out).Error)
	return out
}

func (e env) clickCount(t *testing.T, linkID string) int64 {
	t.Helper()
	var link models.Link
	require.NoError(t, e.db.Where("id = ?", linkID).First(&link).Error)
	return link.ClickCount
}

// countingSchema records EnsureSchema calls.
type countingSchema struct{ calls atomic.Int32 }

func (c *countingSchema) EnsureSchema(context.Context) error {
	c.calls.Add(1)
	return nil
}

// brokenLinks fails selected LinkRepository methods.
type brokenLinks struct {
	repository.LinkRepository
	getErr, incrementErr, createErr, readErr error
}

func (b brokenLinks) GetLinkByID(ctx context.Context, id string) (*models.Link, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	return b.LinkRepository.GetLinkByID(ctx, id)
}

func (b brokenLinks) IncrementClickCount(ctx context.Context, id string) error {
	if b.incrementErr != nil {
		return b.incrementErr
	}
	return b.LinkRepository.IncrementClickCount(ctx, id)
}

func (b brokenLinks) CreateLink(ctx context.Context, link *models.Link) error {
	if b.createErr != nil {
		return b.createErr
	}
	return b.LinkRepository.CreateLink(ctx, link)
}

func (b brokenLinks) CounterTotals(ctx context.Context, ownerID string) (models.CounterTotals, error) {
	if b.readErr != nil {
		return models.CounterTotals{}, b.readErr
	}
	return b.LinkRepository.CounterTotals(ctx, ownerID)
}

func (b brokenLinks) TopLinks(ctx context.Context, ownerID string, limit int) ([]models.LinkSummary, error) {
	if b.readErr != nil {
		return nil, b.readErr
	}
	return b.LinkRepository.TopLinks(ctx, ownerID, limit)
}

// brokenClicks fails every ClickRepository method with err.
type brokenClicks struct{ err error }

func (b brokenClicks) CreateClick(context.Context, *models.ClickEvent) error { return b.err }

func (b brokenClicks) CountClicks(context.Context, string, time.Time) (int64, error) {
	return 0, b.err
}

func (b brokenClicks) ClickTimesSince(context.Context, repository.ClickScope, time.Time) ([]time.Time, error) {
	return nil, b.err
}

func (b brokenClicks) RecentClicks(context.Context, string, int) ([]models.RecentClick, error) {
	return nil, b.err
}

func (b brokenClicks) TrafficSources(context.Context, repository.ClickScope, int) ([]models.SourceCount, error) {
	return nil, b.err
}

func (b brokenClicks) TopReferrers(context.Context, string, int) ([]models.ReferrerCount, error) {
	return nil, b.err
}
