package firebase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"library-api/internal/models"
	"library-api/internal/storage"
)

type userDoc struct {
	ID           int64     `firestore:"id"`
	Username     string    `firestore:"username"`
	PasswordHash string    `firestore:"password_hash"`
	Role         string    `firestore:"role"`
	IsActive     bool      `firestore:"is_active"`
	CreatedAt    time.Time `firestore:"created_at"`
}

func (d userDoc) toModel() *models.User {
	return &models.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         models.UserRole(d.Role),
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

// tokenDoc jest zapisywany pod kluczem tokenu jako ID dokumentu
type tokenDoc struct {
	Key       string    `firestore:"key"`
	UserID    int64     `firestore:"user_id"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (d tokenDoc) toModel() *models.Token {
	return &models.Token{Key: d.Key, UserID: d.UserID, CreatedAt: d.CreatedAt.UTC()}
}

// CreateUser tworzy nowe konto; nazwa użytkownika musi być unikalna
func (c *Client) CreateUser(ctx context.Context, user *models.User) error {
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

	return c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		taken, err := refsOf(tx.Documents(c.usersNamed(user.Username)))
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return &storage.ConflictError{Field: "username"}
		}
		id, err := c.reserveID(tx, UsersCollection)
		if err != nil {
			return err
		}

		if err := c.commitID(tx, UsersCollection, id); err != nil {
			return err
		}
		doc := userDoc{
			ID:           id,
			Username:     user.Username,
			PasswordHash: user.PasswordHash,
			Role:         string(user.Role),
			IsActive:     user.IsActive,
			CreatedAt:    user.CreatedAt,
		}
		if err := tx.Create(c.doc(UsersCollection, id), doc); err != nil {
			return fmt.Errorf("błąd zapisywania użytkownika: %w", err)
		}
		user.ID = id
		return nil
	})
}

func (c *Client) usersNamed(username string) firestore.Query {
	return c.Firestore.Collection(UsersCollection).Where("username", "==", username).Limit(1)
}

// GetUser pobiera użytkownika po ID
func (c *Client) GetUser(ctx context.Context, id int64) (*models.User, error) {
	snap, err := c.doc(UsersCollection, id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("użytkownik %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("błąd pobierania użytkownika %d: %w", id, err)
	}

	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("błąd parsowania danych użytkownika: %w", err)
	}
	return d.toModel(), nil
}

// GetUserByUsername pobiera użytkownika po nazwie
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	iter := c.usersNamed(username).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("użytkownik %q: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("błąd wyszukiwania użytkownika: %w", err)
	}

	var d userDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("błąd parsowania danych użytkownika: %w", err)
	}
	return d.toModel(), nil
}

// UpdateUser aktualizuje hasło, rolę i aktywność konta
func (c *Client) UpdateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("użytkownik nie może być nil")
	}
	if !user.Role.Valid() {
		return fmt.Errorf("nieznana rola: %q", user.Role)
	}

	_, err := c.doc(UsersCollection, user.ID).Update(ctx, []firestore.Update{
		{Path: "password_hash", Value: user.PasswordHash},
		{Path: "role", Value: string(user.Role)},
		{Path: "is_active", Value: user.IsActive},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("użytkownik %d: %w", user.ID, storage.ErrNotFound)
		}
		return fmt.Errorf("błąd aktualizacji użytkownika %d: %w", user.ID, err)
	}
	return nil
}

// ListUsers pobiera wszystkich użytkowników posortowanych po id
func (c *Client) ListUsers(ctx context.Context) ([]*models.User, error) {
	docs, err := readAll[userDoc](c.Firestore.Collection(UsersCollection).OrderBy("id", firestore.Asc).Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("błąd pobierania użytkowników: %w", err)
	}

	users := make([]*models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toModel())
	}
	return users, nil
}

func (c *Client) tokensOf(userID int64) firestore.Query {
	return c.Firestore.Collection(TokensCollection).Where("user_id", "==", userID).Limit(1)
}

// GetTokenByUser pobiera token użytkownika
func (c *Client) GetTokenByUser(ctx context.Context, userID int64) (*models.Token, error) {
	docs, err := readAll[tokenDoc](c.tokensOf(userID).Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("błąd pobierania tokenu użytkownika %d: %w", userID, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("token użytkownika %d: %w", userID, storage.ErrNotFound)
	}
	return docs[0].toModel(), nil
}

// GetToken pobiera token po kluczu
func (c *Client) GetToken(ctx context.Context, key string) (*models.Token, error) {
	if key == "" {
		return nil, fmt.Errorf("token: %w", storage.ErrNotFound)
	}
	snap, err := c.Firestore.Collection(TokensCollection).Doc(key).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("token: %w", storage.ErrNotFound)
		}
		return nil, fmt.Errorf("błąd pobierania tokenu: %w", err)
	}

	var d tokenDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("błąd parsowania tokenu: %w", err)
	}
	return d.toModel(), nil
}

// CreateToken zapisuje token; użytkownik może mieć tylko jeden
func (c *Client) CreateToken(ctx context.Context, token *models.Token) error {
	if token == nil || token.Key == "" {
		return fmt.Errorf("token jest wymagany")
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	return c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := refsOf(tx.Documents(c.tokensOf(token.UserID)))
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &storage.ConflictError{Field: "token"}
		}
		doc := tokenDoc{Key: token.Key, UserID: token.UserID, CreatedAt: token.CreatedAt}
		if err := tx.Create(c.Firestore.Collection(TokensCollection).Doc(token.Key), doc); err != nil {
			return fmt.Errorf("błąd zapisywania tokenu: %w", err)
		}
		return nil
	})
}

// DeleteToken usuwa token po kluczu
func (c *Client) DeleteToken(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("token nie istnieje: %w", storage.ErrNotFound)
	}
	return c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := c.Firestore.Collection(TokensCollection).Doc(key)
		ok, err := exists(tx, ref)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("token nie istnieje: %w", storage.ErrNotFound)
		}
		return tx.Delete(ref)
	})
}
