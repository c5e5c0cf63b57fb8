// Package monitor periodically checks that link destinations still answer
// and logs when one changes state.
package monitor

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	customerrors "github.com/axellelanca/redirector/internal/errors"
	"github.com/axellelanca/redirector/internal/logger"
	"github.com/axellelanca/redirector/internal/metrics"
	"github.com/axellelanca/redirector/internal/models"
)

const (
	defaultWorkers = 4
	requestTimeout = 5 * time.Second
)

// LinkLister is the slice of the link repository the monitor needs.
type LinkLister interface {
	ListLinks(ctx context.Context, ownerID *string) ([]models.Link, error)
}

// Result is the outcome of checking one destination.
type Result struct {
	LinkID     string
	URL        string
	Accessible bool
	Reason     string
}

// URLMonitor HEADs every destination on an interval. It keeps the previous
// state of each link so only transitions are reported above debug level.
type URLMonitor struct {
	links      LinkLister
	interval   time.Duration
	workers    int
	httpClient *http.Client
	metrics    *metrics.Metrics
	log        logger.Logger

	mu          sync.Mutex
	knownStates map[string]bool
}

// Option configures a URLMonitor.
type Option func(*URLMonitor)

// WithWorkers sets how many destinations are checked concurrently.
func WithWorkers(n int) Option {
	return func(m *URLMonitor) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(m *URLMonitor) { m.httpClient = c }
}

// WithMetrics publishes the number of unreachable destinations.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *URLMonitor) { m.metrics = mt }
}

// NewURLMonitor creates a monitor that checks every interval.
func NewURLMonitor(links LinkLister, interval time.Duration, log logger.Logger, opts ...Option) *URLMonitor {
	m := &URLMonitor{
		links:       links,
		interval:    interval,
		workers:     defaultWorkers,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		log:         log.With(logger.String("component", "monitor")),
		knownStates: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start runs an immediate check then one per interval until ctx is done.
func (m *URLMonitor) Start(ctx context.Context) {
	m.log.Info("starting destination monitor", logger.Duration("interval", m.interval))
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.CheckAll(ctx)
	for {
		select {
		case <-ctx.Done():
			m.log.Info("destination monitor stopped")
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll checks every link once and returns the results ordered by link id.
func (m *URLMonitor) CheckAll(ctx context.Context) []Result {
	links, err := m.links.ListLinks(ctx, nil)
	if err != nil {
		m.log.Error("failed to list links for monitoring", logger.Error(err))
		return nil
	}

	jobs := make(chan models.Link)
	results := make(chan Result, len(links))

	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range jobs {
				results <- m.check(ctx, link)
			}
		}()
	}

	for _, link := range links {
		jobs <- link
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]Result, 0, len(links))
	unreachable := 0
	for r := range results {
		m.record(r)
		if !r.Accessible {
			unreachable++
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LinkID < out[j].LinkID })
	m.forgetMissing(links)

	m.metrics.SetUnreachable(unreachable)
	m.log.Debug("destination check completed",
		logger.Int("links", len(out)),
		logger.Int("unreachable", unreachable),
	)
	return out
}

func (m *URLMonitor) check(ctx context.Context, link models.Link) Result {
	res := Result{LinkID: link.ID, URL: link.DestinationURL}
	if err := m.head(ctx, link.DestinationURL); err != nil {
		res.Reason = err.Error()
		return res
	}
	res.Accessible = true
	return res
}

// head reports nil when url answers a HEAD with a 2xx or 3xx status.
func (m *URLMonitor) head(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return customerrors.ErrURLCheckFailed{URL: url, Reason: err.Error()}
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return customerrors.ErrURLCheckFailed{URL: url, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return customerrors.ErrURLCheckFailed{URL: url, Reason: resp.Status}
	}
	return nil
}

// record stores the new state and logs transitions.
func (m *URLMonitor) record(r Result) {
	m.mu.Lock()
	previous, known := m.knownStates[r.LinkID]
	m.knownStates[r.LinkID] = r.Accessible
	m.mu.Unlock()

	fields := []logger.Field{
		logger.String("link_id", r.LinkID),
		logger.String("url", r.URL),
		logger.String("state", formatState(r.Accessible)),
	}
	if r.Reason != "" {
		fields = append(fields, logger.String("reason", r.Reason))
	}

	switch {
	case !known:
		m.log.Debug("initial destination state", fields...)
	case previous != r.Accessible:
		m.log.Warn("destination state changed",
			append(fields, logger.String("previous", formatState(previous)))...)
	}
}

// forgetMissing drops the state of links that are no longer listed.
func (m *URLMonitor) forgetMissing(links []models.Link) {
	current := make(map[string]struct{}, len(links))
	for _, link := range links {
		current[link.ID] = struct{}{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.knownStates {
		if _, ok := current[id]; !ok {
			delete(m.knownStates, id)
		}
	}
}

// State returns the last known state of linkID.
func (m *URLMonitor) State(linkID string) (accessible, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	accessible, known = m.knownStates[linkID]
	return accessible, known
}

func formatState(accessible bool) string {
	if accessible {
		return "ACCESSIBLE"
	}
	return "INACCESSIBLE"
}
