package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against POSTGRES_TEST_DSN when set.
func TestTokenStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, EnsureSchema(ctx, db))

	s := &TokenStore{DB: db}
	id := uuid.NewString()

	tok, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Save(ctx, id, "tok-1"))
	require.NoError(t, s.Save(ctx, id, "tok-2"))
	tok, err = s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)

	require.NoError(t, s.Delete(ctx, id))
	tok, err = s.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestConnectBadDSN(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}
