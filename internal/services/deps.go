// Package services contains the business logic of the redirect service: link
// management, redirect resolution and click analytics.
package services

import (
	"context"
	"errors"
	"time"

	customerrors "github.com/axellelanca/redirector/internal/errors"
)

// SchemaEnsurer runs the one-time lazy schema initialization.
// *database.SchemaGuard satisfies it.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// DestinationCache is an optional slug to destination cache.
// *cache.DestinationCache satisfies it.
type DestinationCache interface {
	Get(ctx context.Context, slug string) (string, bool)
	Set(ctx context.Context, slug, destination string)
	Fill(ctx context.Context, slug, destination string)
	Delete(ctx context.Context, slug string)
}

// Clock returns the current time. Tests replace it to pin day boundaries.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// ensureSchemaOn runs the lazy initialization when err says the tables are
// missing. It reports whether the schema is now in place.
func ensureSchemaOn(ctx context.Context, schema SchemaEnsurer, err error) bool {
	if schema == nil || !errors.Is(err, customerrors.ErrSchemaMissing) {
		return false
	}
	return schema.EnsureSchema(ctx) == nil
}
