package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strings"

	"github.com/axellelanca/redirector/internal/auth"
	customerrors "github.com/axellelanca/redirector/internal/errors"
	"github.com/axellelanca/redirector/internal/logger"
	"github.com/axellelanca/redirector/internal/metrics"
	"github.com/axellelanca/redirector/internal/models"
	"github.com/axellelanca/redirector/internal/repository"
)

// charset defines the character set used for generating short codes.
// 62^6 gives about 56 billion possible 6-character codes.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	shortCodeLength = 6
	// maxGenerateAttempts bounds how many random codes are tried when the
	// generated one is already taken. Custom ids are never retried.
	maxGenerateAttempts = 5
)

var customIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// LinkService provides the write paths and listing for links.
// Storage failures other than conflicts and missing links surface as ErrStorage.
type LinkService struct {
	linkRepo repository.LinkRepository
	cache    DestinationCache
	schema   SchemaEnsurer
	metrics  *metrics.Metrics
	log      logger.Logger
}

// LinkOption configures optional LinkService collaborators.
type LinkOption func(*LinkService)

// WithLinkCache writes updated destinations through to the cache and evicts deleted links.
func WithLinkCache(c DestinationCache) LinkOption {
	return func(s *LinkService) { s.cache = c }
}

// WithLinkSchema enables lazy schema initialization on a missing table.
func WithLinkSchema(schema SchemaEnsurer) LinkOption {
	return func(s *LinkService) { s.schema = schema }
}

// WithLinkMetrics counts created links.
func WithLinkMetrics(m *metrics.Metrics) LinkOption {
	return func(s *LinkService) { s.metrics = m }
}

// NewLinkService creates a LinkService.
func NewLinkService(linkRepo repository.LinkRepository, log logger.Logger, opts ...LinkOption) *LinkService {
	s := &LinkService{linkRepo: linkRepo, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateShortCode generates a cryptographically random base62 code.
func (s *LinkService) GenerateShortCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// ValidateDestination accepts absolute http and https URLs only.
func ValidateDestination(destination string) error {
	u, err := url.ParseRequestURI(strings.TrimSpace(destination))
	if err != nil || u.Host == "" {
		return customerrors.ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return customerrors.ErrInvalidURL
	}
	return nil
}

// ValidateCustomID checks the charset and length of a user supplied slug and
// that the redirect path would actually resolve it.
func ValidateCustomID(id string) error {
	if !customIDPattern.MatchString(id) || !IsResolvable(id) {
		return customerrors.ErrInvalidSlug
	}
	return nil
}

// CreateLink stores a new link for the caller. With an empty customID a
// random code is generated; a taken custom id yields ErrConflict and nothing
// is written.
func (s *LinkService) CreateLink(ctx context.Context, id auth.Identity, destination, customID string) (*models.Link, error) {
	if id.Anonymous() {
		return nil, customerrors.ErrUnauthorized
	}
	destination = strings.TrimSpace(destination)
	if err := ValidateDestination(destination); err != nil {
		return nil, err
	}

	link := &models.Link{
		DestinationURL: destination,
		OwnerID:        id.Owner(),
	}

	if customID != "" {
		if err := ValidateCustomID(customID); err != nil {
			return nil, err
		}
		link.ID = customID
		if err := s.insert(ctx, link); err != nil {
			return nil, s.writeError("create link", err)
		}
		s.created(link)
		return link, nil
	}

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		code, err := s.GenerateShortCode(shortCodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate short code: %w", err)
		}
		link.ID = code

		err = s.insert(ctx, link)
		if err == nil {
			s.created(link)
			return link, nil
		}
		if !errors.Is(err, customerrors.ErrConflict) {
			return nil, s.writeError("create link", err)
		}
		s.log.Debug("short code collision, retrying",
			logger.String("code", code),
			logger.Int("attempt", attempt),
		)
	}
	return nil, customerrors.ErrShortCodeGenerationFailed
}

// insert creates the link, initializing the schema once if the table is missing.
func (s *LinkService) insert(ctx context.Context, link *models.Link) error {
	err := s.linkRepo.CreateLink(ctx, link)
	if ensureSchemaOn(ctx, s.schema, err) {
		err = s.linkRepo.CreateLink(ctx, link)
	}
	return err
}

func (s *LinkService) created(link *models.Link) {
	s.metrics.LinkCreated()
	s.log.Info("link created", logger.String("id", link.ID))
}

// UpdateDestination points the caller's link at a new destination and writes
// it through to the cache. Only the owner may update; anyone else gets ErrNotFound.
func (s *LinkService) UpdateDestination(ctx context.Context, id auth.Identity, linkID, destination string) (*models.Link, error) {
	if id.OwnerID == "" {
		return nil, customerrors.ErrNotFound
	}
	destination = strings.TrimSpace(destination)
	if err := ValidateDestination(destination); err != nil {
		return nil, err
	}

	if err := s.linkRepo.UpdateDestination(ctx, linkID, id.OwnerID, destination); err != nil {
		return nil, s.writeError("update link", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, linkID, destination)
	}

	link, err := s.linkRepo.GetLinkByID(ctx, linkID)
	if err != nil {
		return nil, s.writeError("reload link", err)
	}
	return link, nil
}

// DeleteLink removes a link and its click events. Owners delete their own
// links; admins delete any link.
func (s *LinkService) DeleteLink(ctx context.Context, id auth.Identity, linkID string) error {
	if id.Anonymous() {
		return customerrors.ErrUnauthorized
	}
	var owner *string
	if !id.Admin {
		owner = id.Owner()
	}
	if err := s.linkRepo.DeleteLink(ctx, linkID, owner); err != nil {
		return s.writeError("delete link", err)
	}
	s.evict(ctx, linkID)
	s.log.Info("link deleted", logger.String("id", linkID), logger.Bool("admin", id.Admin))
	return nil
}

// ListLinks returns the caller's links newest first. An admin without an
// owner id sees every link.
func (s *LinkService) ListLinks(ctx context.Context, id auth.Identity) ([]models.Link, error) {
	if id.Anonymous() {
		return nil, customerrors.ErrUnauthorized
	}
	links, err := s.linkRepo.ListLinks(ctx, id.Owner())
	if ensureSchemaOn(ctx, s.schema, err) {
		links, err = s.linkRepo.ListLinks(ctx, id.Owner())
	}
	if err != nil {
		return nil, s.writeError("list links", err)
	}
	if links == nil {
		links = []models.Link{}
	}
	return links, nil
}

func (s *LinkService) evict(ctx context.Context, linkID string) {
	if s.cache != nil {
		s.cache.Delete(ctx, linkID)
	}
}

// writeError keeps NotFound and Conflict and collapses everything else into
// a generic ErrStorage after logging the cause.
func (s *LinkService) writeError(op string, err error) error {
	switch {
	case errors.Is(err, customerrors.ErrNotFound):
		return customerrors.ErrNotFound
	case errors.Is(err, customerrors.ErrConflict):
		return customerrors.ErrConflict
	default:
		s.log.Error(op+" failed", logger.Error(err))
		return customerrors.ErrStorage
	}
}
