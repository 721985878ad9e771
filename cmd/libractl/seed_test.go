package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-api/internal/models"
	"library-api/internal/storage/sqlstore"
)

func TestSeedCatalogIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := sqlstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var out bytes.Buffer
	require.NoError(t, seedCatalog(ctx, store, &out))
	require.NoError(t, seedCatalog(ctx, store, &out))
	assert.Contains(t, out.String(), "pomijam")

	books, err := store.ListBooks(ctx, models.BookQuery{})
	require.NoError(t, err)
	assert.Len(t, books, len(sampleBooks))
	for _, b := range books {
		assert.True(t, b.Available)
	}

	// Świat Książki i Fantasy występują kilka razy, ale w słowniku są raz
	genres, err := store.ListEntries(ctx, models.KindGenre)
	require.NoError(t, err)
	assert.Len(t, genres, 7)
	publishers, err := store.ListEntries(ctx, models.KindPublisher)
	require.NoError(t, err)
	assert.Len(t, publishers, 9)
}

func TestPrintUsers(t *testing.T) {
	var out bytes.Buffer
	users := []*models.User{
		{ID: 1, Username: "admin", Role: models.RoleAdmin, IsActive: true},
		{ID: 2, Username: "ana", Role: models.RoleReader, IsActive: false},
	}
	require.NoError(t, printUsers(&out, users))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[1]), "admin")
	assert.Contains(t, string(lines[2]), "false")
}
