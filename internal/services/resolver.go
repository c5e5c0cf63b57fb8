package services

import (
	"context"
	"errors"
	"strings"

	customerrors "github.com/axellelanca/redirector/internal/errors"
	"github.com/axellelanca/redirector/internal/logger"
	"github.com/axellelanca/redirector/internal/metrics"
	"github.com/axellelanca/redirector/internal/models"
	"github.com/axellelanca/redirector/internal/repository"
	"github.com/axellelanca/redirector/internal/traffic"
)

// reservedSlugs are top-level paths owned by the application or by browsers.
var reservedSlugs = map[string]struct{}{
	"admin":       {},
	"api":         {},
	"dashboard":   {},
	"health":      {},
	"metrics":     {},
	"favicon.ico": {},
	"robots.txt":  {},
	"sitemap.xml": {},
}

// IsResolvable reports whether slug may name a link. Empty, reserved and
// dotted slugs (static asset lookalikes) are rejected without touching storage.
func IsResolvable(slug string) bool {
	if slug == "" || strings.IndexByte(slug, '.') >= 0 {
		return false
	}
	_, reserved := reservedSlugs[slug]
	return !reserved
}

// Resolver turns a slug into its destination and records the click.
type Resolver struct {
	links   repository.LinkRepository
	clicks  repository.ClickRepository
	cache   DestinationCache
	schema  SchemaEnsurer
	metrics *metrics.Metrics
	log     logger.Logger
	now     Clock
}

// ResolverOption configures optional Resolver collaborators.
type ResolverOption func(*Resolver)

// WithResolverCache enables the destination cache.
func WithResolverCache(c DestinationCache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

// WithResolverSchema enables lazy schema initialization on a missing table.
func WithResolverSchema(s SchemaEnsurer) ResolverOption {
	return func(r *Resolver) { r.schema = s }
}

// WithResolverMetrics records redirect outcomes.
func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// WithResolverClock overrides the event timestamp source.
func WithResolverClock(now Clock) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver.
func NewResolver(links repository.LinkRepository, clicks repository.ClickRepository, log logger.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		links:  links,
		clicks: clicks,
		log:    log,
		now:    utcNow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the destination of slug after counting the click and
// inserting its event. The three statements are independent: concurrent
// clicks may interleave and the counter may drift from the event log.
//
// Every failure is reported as ErrNotFound; the cause is only logged.
func (r *Resolver) Resolve(ctx context.Context, slug string, meta models.RequestMeta) (string, error) {
	if !IsResolvable(slug) {
		r.metrics.Redirect(metrics.OutcomeRejected)
		return "", customerrors.ErrNotFound
	}

	destination, cached := r.lookup(ctx, slug)
	if destination == "" {
		return "", customerrors.ErrNotFound
	}

	host := traffic.ReferrerHost(meta.Referrer)
	source := traffic.Classify(host)

	if err := r.links.IncrementClickCount(ctx, slug); err != nil {
		if cached && r.cache != nil {
			r.cache.Delete(ctx, slug)
		}
		r.fail(slug, "increment", err)
		return "", customerrors.ErrNotFound
	}

	event := &models.ClickEvent{
		LinkID:       slug,
		ClickedAt:    r.now().UTC(),
		ReferrerHost: optional(host),
		SourceType:   optional(string(source)),
		CountryCode:  optional(strings.ToUpper(strings.TrimSpace(meta.CountryCode))),
		UserAgent:    optional(meta.UserAgent),
	}
	if err := r.clicks.CreateClick(ctx, event); err != nil {
		r.fail(slug, "insert", err)
		return "", customerrors.ErrNotFound
	}

	if !cached && r.cache != nil {
		r.cache.Fill(ctx, slug, destination)
	}
	r.metrics.Redirect(metrics.OutcomeFound)
	r.metrics.Click(string(source))
	return destination, nil
}

// lookup returns the destination and whether it came from the cache.
// An empty destination means the link could not be resolved.
func (r *Resolver) lookup(ctx context.Context, slug string) (string, bool) {
	if r.cache != nil {
		dest, ok := r.cache.Get(ctx, slug)
		r.metrics.CacheLookup(ok)
		if ok {
			return dest, true
		}
	}

	link, err := r.links.GetLinkByID(ctx, slug)
	if err != nil {
		if errors.Is(err, customerrors.ErrNotFound) {
			r.metrics.Redirect(metrics.OutcomeNotFound)
			return "", false
		}
		ensureSchemaOn(ctx, r.schema, err)
		r.fail(slug, "lookup", err)
		return "", false
	}
	return link.DestinationURL, false
}

func (r *Resolver) fail(slug, step string, err error) {
	if errors.Is(err, customerrors.ErrNotFound) {
		r.metrics.Redirect(metrics.OutcomeNotFound)
		return
	}
	r.metrics.Redirect(metrics.OutcomeFailed)
	r.log.Warn("redirect failed closed",
		logger.Error(customerrors.ErrClickRecordingFailed{LinkID: slug, Step: step, Err: err}))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
