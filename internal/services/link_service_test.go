package services_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axellelanca/redirector/internal/auth"
	"github.com/axellelanca/redirector/internal/database"
	customerrors "github.com/axellelanca/redirector/internal/errors"
	"github.com/axellelanca/redirector/internal/logger"
	"github.com/axellelanca/redirector/internal/models"
	"github.com/axellelanca/redirector/internal/repository"
	"github.com/axellelanca/redirector/internal/services"
)

var alice = auth.Identity{OwnerID: "alice"}

func TestGenerateShortCode(t *testing.T) {
	svc := services.NewLinkService(nil, logger.NewNop())
	pattern := regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := svc.GenerateShortCode(6)
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 45)
}

func TestValidateDestination(t *testing.T) {
	valid := []string{"https://example.com", "http://example.com/a?b=c", "https://sub.example.com:8443/x"}
	invalid := []string{"", "example.com", "/relative", "ftp://example.com", "javascript:alert(1)", "https://"}

	for _, u := range valid {
		assert.NoError(t, services.ValidateDestination(u), u)
	}
	for _, u := range invalid {
		assert.ErrorIs(t, services.ValidateDestination(u), customerrors.ErrInvalidURL, u)
	}
}

func TestValidateCustomID(t *testing.T) {
	assert.NoError(t, services.ValidateCustomID("promo"))
	assert.NoError(t, services.ValidateCustomID("Spring_Sale-2026"))

	for _, id := range []string{"admin", "api", "has space", "dot.ted", "slash/ed", strings.Repeat("a", 65)} {
		assert.ErrorIs(t, services.ValidateCustomID(id), customerrors.ErrInvalidSlug, id)
	}
}

func TestCreateLink_Generated(t *testing.T) {
	e := newEnv(t)
	svc := services.NewLinkService(e.links, logger.NewNop())

	link, err := svc.CreateLink(context.Background(), alice, " https://example.com ", "")
	require.NoError(t, err)
	assert.Len(t, link.ID, 6)
	assert.Equal(t, "https://example.com", link.DestinationURL)
	require.NotNil(t, link.OwnerID)
	assert.Equal(t, "alice", *link.OwnerID)
	assert.Zero(t, link.ClickCount)
	assert.False(t, link.CreatedAt.IsZero())
}

func TestCreateLink_AdminHasNoOwner(t *testing.T) {
	e := newEnv(t)
	svc := services.NewLinkService(e.links, logger.NewNop())

	link, err := svc.CreateLink(context.Background(), auth.Identity{Admin: true}, "https://example.com", "adminlink")
	require.NoError(t, err)
	assert.Nil(t, link.OwnerID)
}

func TestCreateLink_DuplicateConflict(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := services.NewLinkService(e.links, logger.NewNop())
	resolver := services.NewResolver(e.links, e.clicks, logger.NewNop())

	_, err := svc.CreateLink(ctx, alice, "https://example.com", "promo")
	require.NoError(t, err)
	_, err = resolver.Resolve(ctx, "promo", models.RequestMeta{})
	require.NoError(t, err)

	_, err = svc.CreateLink(ctx, auth.Identity{OwnerID: "bob"}, "https://other.example", "promo")
	assert.ErrorIs(t, err, customerrors.ErrConflict)

	assert.Equal(t, int64(1), e.clickCount(t, "promo"))
	assert.Len(t, e.events(t, "promo"), 1)
	link, err := e.links.GetLinkByID(ctx, "promo")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.DestinationURL)
	assert.Equal(t, "alice", *link.OwnerID)
}

func TestCreateLink_Rejections(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := services.NewLinkService(e.links, logger.NewNop())

	_, err := svc.CreateLink(ctx, auth.Identity{}, "https://example.com", "")
	assert.ErrorIs(t, err, customerrors.ErrUnauthorized)

	_, err = svc.CreateLink(ctx, alice, "not a url", "")
	assert.ErrorIs(t, err, customerrors.ErrInvalidURL)

	_, err = svc.CreateLink(ctx, alice, "https://example.com", "admin")
	assert.ErrorIs(t, err, customerrors.ErrInvalidSlug)
}

func TestCreateLink_GenerationGivesUp(t *testing.T) {
	e := newEnv(t)
	conflict := fmt.Errorf("insert: %w", customerrors.ErrConflict)
	svc := services.NewLinkService(brokenLinks{LinkRepository: e.links, createErr: conflict}, logger.NewNop())

	_, err := svc.CreateLink(context.Background(), alice, "https://example.com", "")
	assert.ErrorIs(t, err, customerrors.ErrShortCodeGenerationFailed)
}

func TestCreateLink_StorageErrorIsGeneric(t *testing.T) {
	e := newEnv(t)
	cause := fmt.Errorf("insert: %w: %w", customerrors.ErrStorage, errors.New("disk I/O error"))
	svc := services.NewLinkService(brokenLinks{LinkRepository: e.links, createErr: cause}, logger.NewNop())

	_, err := svc.CreateLink(context.Background(), alice, "https://example.com", "promo")
	assert.Equal(t, customerrors.ErrStorage, err)
}

func TestCreateLink_InitializesMissingSchema(t *testing.T) {
	db := openDB(t)
	svc := services.NewLinkService(
		repository.NewLinkRepository(db),
		logger.NewNop(),
		services.WithLinkSchema(database.NewSchemaGuard(db, logger.NewNop())),
	)

	link, err := svc.CreateLink(context.Background(), alice, "https://example.com", "promo")
	require.NoError(t, err)
	assert.Equal(t, "promo", link.ID)
}

func TestUpdateDestination(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := services.NewLinkService(e.links, logger.NewNop())
	_, err := svc.CreateLink(ctx, alice, "https://example.com", "promo")
	require.NoError(t, err)

	_, err = svc.UpdateDestination(ctx, auth.Identity{OwnerID: "bob"}, "promo", "https://evil.example")
	assert.ErrorIs(t, err, customerrors.ErrNotFound)

	_, err = svc.UpdateDestination(ctx, auth.Identity{Admin: true}, "promo", "https://evil.example")
	assert.ErrorIs(t, err, customerrors.ErrNotFound)

	_, err = svc.UpdateDestination(ctx, alice, "promo", "mailto:x@example.com")
	assert.ErrorIs(t, err, customerrors.ErrInvalidURL)

	link, err := svc.UpdateDestination(ctx, alice, "promo", "https://new.example")
	require.NoError(t, err)
	assert.Equal(t, "https://new.example", link.DestinationURL)
}

func TestDeleteLink(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := services.NewLinkService(e.links, logger.NewNop())
	resolver := services.NewResolver(e.links, e.clicks, logger.NewNop())

	for _, id := range []string{"mine", "theirs"} {
		_, err := svc.CreateLink(ctx, alice, "https://example.com/"+id, id)
		require.NoError(t, err)
		_, err = resolver.Resolve(ctx, id, models.RequestMeta{})
		require.NoError(t, err)
	}

	assert.ErrorIs(t, svc.DeleteLink(ctx, auth.Identity{OwnerID: "bob"}, "mine"), customerrors.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteLink(ctx, auth.Identity{}, "mine"), customerrors.ErrUnauthorized)

	require.NoError(t, svc.DeleteLink(ctx, alice, "mine"))
	assert.Empty(t, e.events(t, "mine"))

	require.NoError(t, svc.DeleteLink(ctx, auth.Identity{Admin: true}, "theirs"))
	assert.Empty(t, e.events(t, "theirs"))

	_, err := resolver.Resolve(ctx, "mine", models.RequestMeta{})
	assert.ErrorIs(t, err, customerrors.ErrNotFound)
}

func TestListLinks(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.seedLink(t, "a1", "alice", 0, fixedNow.Add(-1))
	e.seedLink(t, "a2", "alice", 0, fixedNow)
	e.seedLink(t, "b1", "bob", 0, fixedNow)
	svc := services.NewLinkService(e.links, logger.NewNop())

	mine, err := svc.ListLinks(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "a2", mine[0].ID)

	all, err := svc.ListLinks(ctx, auth.Identity{Admin: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := svc.ListLinks(ctx, auth.Identity{OwnerID: "carol"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.ListLinks(ctx, auth.Identity{})
	assert.ErrorIs(t, err, customerrors.ErrUnauthorized)
}
