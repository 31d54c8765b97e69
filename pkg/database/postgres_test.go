package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := DefaultPostgresConfig()
	cfg.Password = "secret"

	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=events_db sslmode=disable", cfg.DSN())
}

func TestErrorCode(t *testing.T) {
	pgErr := &pgconn.PgError{Code: CodeSerializationFailure}

	assert.Equal(t, CodeSerializationFailure, ErrorCode(pgErr))
	assert.Equal(t, CodeSerializationFailure, ErrorCode(fmt.Errorf("insert rsvp: %w", pgErr)))
	assert.Equal(t, "", ErrorCode(errors.New("boom")))
	assert.Equal(t, "", ErrorCode(nil))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&pgconn.PgError{Code: CodeSerializationFailure}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: CodeDeadlockDetected}))
	assert.False(t, IsTransient(&pgconn.PgError{Code: CodeUniqueViolation}))
	assert.False(t, IsTransient(errors.New("connection refused")))
}

func TestNewPostgres_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	cfg := DefaultPostgresConfig()
	cfg.Password = os.Getenv("TEST_DATABASE_PASSWORD")
	if host := os.Getenv("TEST_DATABASE_HOST"); host != "" {
		cfg.Host = host
	}

	ctx := context.Background()
	db, err := NewPostgres(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.HealthCheck(ctx))
	assert.NoError(t, db.Migrate(ctx, "CREATE TEMP TABLE IF NOT EXISTS probe (id int)"))
}
