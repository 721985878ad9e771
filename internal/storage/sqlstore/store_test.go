package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-api/internal/models"
	"library-api/internal/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "biblioteca.db")
	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type catalogRefs struct {
	author, publisher, genre int64
}

func seedCatalog(t *testing.T, s *Store) catalogRefs {
	t.Helper()
	ctx := context.Background()

	var refs catalogRefs
	for kind, dst := range map[models.CatalogKind]*int64{
		models.KindAuthor:    &refs.author,
		models.KindPublisher: &refs.publisher,
		models.KindGenre:     &refs.genre,
	} {
		entry := &models.CatalogEntry{Name: "Wpis " + string(kind)}
		require.NoError(t, s.CreateEntry(ctx, kind, entry))
		*dst = entry.ID
	}
	return refs
}

func addBook(t *testing.T, s *Store, refs catalogRefs, title, code string) *models.Book {
	t.Helper()

	book := &models.Book{
		Title:           title,
		AuthorID:        refs.author,
		PublisherID:     refs.publisher,
		GenreID:         refs.genre,
		PublicationYear: 1990,
		Code:            code,
	}
	require.NoError(t, s.CreateBook(context.Background(), book))
	return book
}

func addUser(t *testing.T, s *Store, username string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{Username: username, PasswordHash: "hash", Role: role, IsActive: true}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "  ")
	assert.Error(t, err)

	_, err = Open(context.Background(), "oracle", "dsn")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))

	n, err := s.count(ctx, s.db, migrationTable)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id INTEGER);\n", ExtractUpMigration(content))
	assert.Equal(t, "SELECT 1;", ExtractUpMigration("SELECT 1;"))
}

func TestCatalogCRUD(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()

	for _, kind := range models.CatalogKinds {
		entry := &models.CatalogEntry{Name: "  Gabriel García Márquez  "}
		require.NoError(t, s.CreateEntry(ctx, kind, entry))
		assert.NotZero(t, entry.ID)
		assert.Equal(t, "Gabriel García Márquez", entry.Name)

		got, err := s.GetEntry(ctx, kind, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry, got)

		entry.Name = "Isabel Allende"
		require.NoError(t, s.UpdateEntry(ctx, kind, entry))

		list, err := s.ListEntries(ctx, kind)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Isabel Allende", list[0].Name)

		require.NoError(t, s.DeleteEntry(ctx, kind, entry.ID))
		_, err = s.GetEntry(ctx, kind, entry.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
}

func TestCatalogValidationAndMissing(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()

	err := s.CreateEntry(ctx, models.KindGenre, &models.CatalogEntry{Name: "   "})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "nombre")

	err = s.UpdateEntry(ctx, models.KindGenre, &models.CatalogEntry{ID: 99, Name: "Poesía"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.DeleteEntry(ctx, models.KindAuthor, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.ListEntries(ctx, models.CatalogKind("shelves"))
	assert.Error(t, err)
}

func TestUsersAndTokens(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()

	user := addUser(t, s, "ana", models.RoleReader)

	err := s.CreateUser(ctx, &models.User{Username: "ana", PasswordHash: "x", IsActive: true})
	var conflict *storage.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)

	got, err := s.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, models.RoleReader, got.Role)
	assert.True(t, got.IsActive)

	got.Role = models.RoleAdmin
	got.IsActive = false
	require.NoError(t, s.UpdateUser(ctx, got))
	got, err = s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
	assert.False(t, got.IsActive)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	token := &models.Token{Key: "0123456789abcdef0123456789abcdef01234567", UserID: user.ID}
	require.NoError(t, s.CreateToken(ctx, token))

	byUser, err := s.GetTokenByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, token.Key, byUser.Key)

	byKey, err := s.GetToken(ctx, token.Key)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byKey.UserID)
	assert.WithinDuration(t, token.CreatedAt, byKey.CreatedAt, time.Millisecond)

	err = s.CreateToken(ctx, &models.Token{Key: "other", UserID: user.ID})
	assert.ErrorIs(t, err, storage.ErrConflict)

	require.NoError(t, s.DeleteToken(ctx, token.Key))
	_, err = s.GetToken(ctx, token.Key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteToken(ctx, token.Key), storage.ErrNotFound)
}
