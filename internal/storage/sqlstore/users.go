package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"

	"library-api/internal/models"
	"library-api/internal/storage"
)

// userRow to wiersz tabeli users; znaczniki czasu są w milisekundach
type userRow struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
	IsActive     bool   `db:"is_active"`
	CreatedAt    int64  `db:"created_at"`
}

func (r userRow) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         models.UserRole(r.Role),
		IsActive:     r.IsActive,
		CreatedAt:    fromMillis(r.CreatedAt),
	}
}

type tokenRow struct {
	Key       string `db:"token_key"`
	UserID    int64  `db:"user_id"`
	CreatedAt int64  `db:"created_at"`
}

func (r tokenRow) toModel() *models.Token {
	return &models.Token{Key: r.Key, UserID: r.UserID, CreatedAt: fromMillis(r.CreatedAt)}
}

var userColumns = []interface{}{"id", "username", "password_hash", "role", "is_active", "created_at"}

// CreateUser tworzy nowe konto
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("użytkownik nie może być nil")
	}
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return fmt.Errorf("nazwa użytkownika jest wymagana")
	}
	if user.Role == "" {
		user.Role = models.RoleReader
	}
	if !user.Role.Valid() {
		return fmt.Errorf("nieznana rola: %q", user.Role)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	id, err := s.insert(ctx, s.db, s.insertInto(UsersTable).Rows(goqu.Record{
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"is_active":     user.IsActive,
		"created_at":    toMillis(user.CreatedAt),
	}))
	if err != nil {
		if isUniqueViolation(err) {
			return &storage.ConflictError{Field: "username"}
		}
		return fmt.Errorf("błąd zapisywania użytkownika: %w", err)
	}
	user.ID = id
	return nil
}

// GetUser pobiera użytkownika po ID
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var row userRow
	ds := s.from(UsersTable).Select(userColumns...).Where(goqu.C("id").Eq(id))
	if err := s.get(ctx, s.db, &row, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania użytkownika %d: %w", id, err)
	}
	return row.toModel(), nil
}

// GetUserByUsername pobiera użytkownika po nazwie
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var row userRow
	ds := s.from(UsersTable).Select(userColumns...).Where(goqu.C("username").Eq(username))
	if err := s.get(ctx, s.db, &row, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania użytkownika %q: %w", username, err)
	}
	return row.toModel(), nil
}

// UpdateUser aktualizuje hasło, rolę i aktywność konta
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("użytkownik nie może być nil")
	}
	if !user.Role.Valid() {
		return fmt.Errorf("nieznana rola: %q", user.Role)
	}

	ds := s.update(UsersTable).Set(goqu.Record{
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"is_active":     user.IsActive,
	}).Where(goqu.C("id").Eq(user.ID))
	if err := s.execAffecting(ctx, s.db, ds); err != nil {
		return fmt.Errorf("błąd aktualizacji użytkownika %d: %w", user.ID, err)
	}
	return nil
}

// ListUsers pobiera wszystkich użytkowników posortowanych po id
func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	var rows []userRow
	ds := s.from(UsersTable).Select(userColumns...).Order(goqu.C("id").Asc())
	if err := s.selectAll(ctx, s.db, &rows, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania użytkowników: %w", err)
	}

	users := make([]*models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	return users, nil
}

// GetTokenByUser pobiera token użytkownika
func (s *Store) GetTokenByUser(ctx context.Context, userID int64) (*models.Token, error) {
	var row tokenRow
	ds := s.from(TokensTable).Select("token_key", "user_id", "created_at").Where(goqu.C("user_id").Eq(userID))
	if err := s.get(ctx, s.db, &row, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania tokenu użytkownika %d: %w", userID, err)
	}
	return row.toModel(), nil
}

// GetToken pobiera token po kluczu
func (s *Store) GetToken(ctx context.Context, key string) (*models.Token, error) {
	var row tokenRow
	ds := s.from(TokensTable).Select("token_key", "user_id", "created_at").Where(goqu.C("token_key").Eq(key))
	if err := s.get(ctx, s.db, &row, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania tokenu: %w", err)
	}
	return row.toModel(), nil
}

// CreateToken zapisuje token; użytkownik może mieć tylko jeden
func (s *Store) CreateToken(ctx context.Context, token *models.Token) error {
	if token == nil || token.Key == "" {
		return fmt.Errorf("token jest wymagany")
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := s.exec(ctx, s.db, s.insertInto(TokensTable).Rows(goqu.Record{
		"token_key":  token.Key,
		"user_id":    token.UserID,
		"created_at": toMillis(token.CreatedAt),
	}))
	if err != nil {
		if isUniqueViolation(err) {
			return &storage.ConflictError{Field: "token"}
		}
		return fmt.Errorf("błąd zapisywania tokenu: %w", err)
	}
	return nil
}

// DeleteToken usuwa token po kluczu
func (s *Store) DeleteToken(ctx context.Context, key string) error {
	err := s.execAffecting(ctx, s.db, s.deleteFrom(TokensTable).Where(goqu.C("token_key").Eq(key)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("token nie istnieje: %w", err)
		}
		return fmt.Errorf("błąd usuwania tokenu: %w", err)
	}
	return nil
}
