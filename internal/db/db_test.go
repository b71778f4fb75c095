package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"os"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-chat/internal/config"
	"document-chat/internal/embedding/embeddingtest"
	"document-chat/internal/models"
)

func TestSegment_EmbeddingRoundTrip(t *testing.T) {
	seg := Segment{Embedding: pgvector.NewVector([]float32{1, 0.5, -2})}

	v, err := seg.Embedding.Value()
	require.NoError(t, err)
	assert.Equal(t, driver.Value("[1,0.5,-2]"), v)

	var scanned pgvector.Vector
	require.NoError(t, scanned.Scan([]byte(v.(string))))
	assert.Equal(t, []float32{1, 0.5, -2}, scanned.Slice())

	require.NoError(t, scanned.Scan("[0.25,4]"))
	assert.Equal(t, []float32{0.25, 4}, scanned.Slice())

	assert.Error(t, scanned.Scan("[a]"))
	assert.Error(t, scanned.Scan(42))
}

func TestConnectDB_RequiresDSN(t *testing.T) {
	_, err := ConnectDB(&config.StoreConfig{})
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	plain := errors.New("boom")
	assert.Equal(t, plain, describe(plain))
}

// The store tests need a Postgres with the pgvector extension available.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DOCUMENT_CHAT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("DOCUMENT_CHAT_TEST_DATABASE_URL not set")
	}
	sqldb, err := ConnectDB(&config.StoreConfig{DSN: dsn})
	require.NoError(t, err)
	bunDB := NewDB(sqldb, false)
	t.Cleanup(func() { _ = bunDB.Close() })

	ctx := context.Background()
	require.NoError(t, DropSegments(ctx, bunDB))
	require.NoError(t, InitDB(ctx, bunDB))
	return NewStore(bunDB, embeddingtest.NewEmbedder())
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	segments := []models.Segment{
		{ID: "id0", Content: "Samples are fixed in alcohol.", Source: "doc.pdf", PageNumber: 1},
		{ID: "id1", Content: "Slides are stained before screening.", Source: "doc.pdf", PageNumber: 1},
		{ID: "id2", Content: "Screening is partly automated.", Source: "doc.pdf", PageNumber: 2},
		{ID: "id3", Content: "Glandular cells are reported separately.", Source: "doc.pdf", PageNumber: 2},
	}
	require.NoError(t, s.Add(ctx, segments))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	result, err := s.Query(ctx, segments[3].Content, 1)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "id3", result[0].ID)
	assert.Equal(t, 2, result[0].PageNumber)

	assert.ErrorIs(t, s.Add(ctx, segments[:1]), models.ErrStoreWrite)

	require.NoError(t, s.Reset(ctx))
	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
