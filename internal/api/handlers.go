package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	customerrors "github.com/axellelanca/redirector/internal/errors"
	"github.com/axellelanca/redirector/internal/models"
	"github.com/axellelanca/redirector/internal/services"
)

// Geo headers set by the CDN in front of the service, in priority order.
var countryHeaders = []string{"CF-IPCountry", "X-Vercel-IP-Country"}

// HealthCheckHandler handles the /health route.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateLinkRequest is the body of POST /api/v1/links.
// Single: {"url": "https://example.com", "id": "promo"}
// Batch:  {"urls": ["https://example.com", "https://example.org"]}
type CreateLinkRequest struct {
	URL  string   `json:"url"`
	ID   string   `json:"id"`
	URLs []string `json:"urls"`
}

// CreateLinkResponse describes one created link, or why it failed in a batch.
type CreateLinkResponse struct {
	ID             string `json:"id,omitempty"`
	DestinationURL string `json:"url"`
	ShortURL       string `json:"short_url,omitempty"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

// CreateLinksResponse is the batch response with per-URL results.
type CreateLinksResponse struct {
	Results []CreateLinkResponse `json:"results"`
	Summary BatchSummary         `json:"summary"`
}

// BatchSummary counts the outcomes of a batch create.
type BatchSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// UpdateLinkRequest is the body of PATCH /api/v1/links/:id.
type UpdateLinkRequest struct {
	URL string `json:"url" binding:"required"`
}

// CreateLinkHandler creates one link, or several when "urls" is given.
// A custom id only applies to single creates.
func CreateLinkHandler(linkService *services.LinkService, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		switch {
		case len(req.URLs) > 0 && (req.URL != "" || req.ID != ""):
			c.JSON(http.StatusBadRequest, gin.H{"error": "'urls' cannot be combined with 'url' or 'id'"})
		case len(req.URLs) > 0:
			handleBatch(c, linkService, baseURL, req.URLs)
		case req.URL != "":
			handleSingle(c, linkService, baseURL, req.URL, req.ID)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Either 'url' or 'urls' must be provided"})
		}
	}
}

func handleSingle(c *gin.Context, linkService *services.LinkService, baseURL, destination, customID string) {
	link, err := linkService.CreateLink(c.Request.Context(), IdentityFrom(c), destination, customID)
	if err != nil {
		status, msg := statusFor(err)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusCreated, CreateLinkResponse{
		ID:             link.ID,
		DestinationURL: link.DestinationURL,
		ShortURL:       shortURL(baseURL, link.ID),
		Success:        true,
	})
}

func handleBatch(c *gin.Context, linkService *services.LinkService, baseURL string, destinations []string) {
	resp := CreateLinksResponse{Results: make([]CreateLinkResponse, 0, len(destinations))}
	id := IdentityFrom(c)

	for _, destination := range destinations {
		result := CreateLinkResponse{DestinationURL: destination}
		link, err := linkService.CreateLink(c.Request.Context(), id, destination, "")
		if err != nil {
			_, result.Error = statusFor(err)
			resp.Summary.Failed++
		} else {
			result.Success = true
			result.ID = link.ID
			result.ShortURL = shortURL(baseURL, link.ID)
			resp.Summary.Successful++
		}
		resp.Results = append(resp.Results, result)
	}
	resp.Summary.Total = len(destinations)

	status := http.StatusMultiStatus
	switch {
	case resp.Summary.Failed == 0:
		status = http.StatusCreated
	case resp.Summary.Successful == 0:
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}

// ListLinksHandler lists the caller's links.
func ListLinksHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		links, err := linkService.ListLinks(c.Request.Context(), IdentityFrom(c))
		if err != nil {
			status, msg := statusFor(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"links": links, "count": len(links)})
	}
}

// UpdateLinkHandler changes the destination of one of the caller's links.
func UpdateLinkHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		link, err := linkService.UpdateDestination(c.Request.Context(), IdentityFrom(c), c.Param("id"), req.URL)
		if err != nil {
			status, msg := statusFor(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, link)
	}
}

// DeleteLinkHandler deletes a link and its click history.
func DeleteLinkHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := linkService.DeleteLink(c.Request.Context(), IdentityFrom(c), c.Param("id")); err != nil {
			status, msg := statusFor(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// AccountStatsHandler returns the dashboard summary of the caller.
// It always answers 200; unavailable sections come back empty.
func AccountStatsHandler(analytics *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := analytics.GetAccountStats(c.Request.Context(), IdentityFrom(c).OwnerID)
		c.JSON(http.StatusOK, stats)
	}
}

// LinkStatsHandler returns the detail view of one of the caller's links.
func LinkStatsHandler(analytics *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := analytics.GetLinkStats(c.Request.Context(), IdentityFrom(c).OwnerID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// RedirectHandler resolves the slug and answers 302, or 404 for anything
// that cannot be resolved. The cause of a failure is never exposed.
func RedirectHandler(resolver *services.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := models.RequestMeta{
			Referrer:    c.Request.Referer(),
			UserAgent:   c.Request.UserAgent(),
			CountryCode: countryCode(c),
		}

		destination, err := resolver.Resolve(c.Request.Context(), c.Param("slug"), meta)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found"})
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Redirect(http.StatusFound, destination)
	}
}

func countryCode(c *gin.Context) string {
	for _, h := range countryHeaders {
		if v := strings.TrimSpace(c.GetHeader(h)); v != "" {
			return v
		}
	}
	return ""
}

func shortURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/" + id
}

// statusFor maps service errors to an HTTP status and a user-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, customerrors.ErrInvalidURL):
		return http.StatusBadRequest, "Destination must be an absolute http(s) URL"
	case errors.Is(err, customerrors.ErrInvalidSlug):
		return http.StatusBadRequest, "Identifier must be 1-64 letters, digits, '-' or '_' and not a reserved path"
	case errors.Is(err, customerrors.ErrConflict):
		return http.StatusConflict, "Identifier already taken"
	case errors.Is(err, customerrors.ErrNotFound):
		return http.StatusNotFound, "Link not found"
	case errors.Is(err, customerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, customerrors.ErrShortCodeGenerationFailed):
		return http.StatusServiceUnavailable, "Unable to generate unique short code. Please try again later."
	default:
		return http.StatusInternalServerError, "Something went wrong, please try again"
	}
}
