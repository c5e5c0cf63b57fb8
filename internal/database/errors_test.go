package database_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/axellelanca/redirector/internal/database"
	customerrors "github.com/axellelanca/redirector/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "record not found", err: gorm.ErrRecordNotFound, want: customerrors.ErrNotFound},
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, want: customerrors.ErrConflict},
		{name: "postgres unique violation", err: &pq.Error{Code: "23505"}, want: customerrors.ErrConflict},
		{
			name: "sqlite unique violation",
			err:  errors.New("constraint failed: UNIQUE constraint failed: links.id (1555)"),
			want: customerrors.ErrConflict,
		},
		{name: "postgres undefined table", err: &pq.Error{Code: "42P01"}, want: customerrors.ErrSchemaMissing},
		{name: "sqlite missing table", err: errors.New("SQL logic error: no such table: links (1)"), want: customerrors.ErrSchemaMissing},
		{
			name: "wrapped missing relation",
			err:  fmt.Errorf("query: %w", errors.New(`pq: relation "click_events" does not exist`)),
			want: customerrors.ErrSchemaMissing,
		},
		{name: "anything else", err: errors.New("connection refused"), want: customerrors.ErrStorage},
		{name: "other postgres code", err: &pq.Error{Code: "08006"}, want: customerrors.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := database.Classify("op", tt.err)
			require.Error(t, got)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "original error must stay in the chain")
			assert.Contains(t, got.Error(), "op: ")
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, database.Classify("op", nil))
}

func TestIsUniqueViolation_DoesNotMatchMissingTable(t *testing.T) {
	assert.False(t, database.IsUniqueViolation(&pq.Error{Code: "42P01"}))
	assert.False(t, database.IsMissingTable(&pq.Error{Code: "23505"}))
}
