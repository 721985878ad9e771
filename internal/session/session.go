// Package session obsługuje logowanie i tokeny dostępu do API.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"library-api/internal/models"
	"library-api/internal/storage"
)

// tokenBytes daje klucz o długości 40 znaków szesnastkowych
const tokenBytes = 20

var (
	// ErrInvalidCredentials oznacza złą nazwę, złe hasło albo nieaktywne konto
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	// ErrInvalidToken oznacza nieznany, wygasły albo osierocony token
	ErrInvalidToken = errors.New("invalid token")
)

// Manager wydaje i weryfikuje tokeny użytkowników
type Manager struct {
	users storage.UserStore
	ttl   time.Duration
	now   func() time.Time
}

// NewManager tworzy managera; ttl <= 0 oznacza tokeny bez terminu ważności
func NewManager(users storage.UserStore, ttl time.Duration) *Manager {
	return &Manager{
		users: users,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Login sprawdza hasło i zwraca istniejący token użytkownika albo tworzy nowy
func (m *Manager) Login(ctx context.Context, username, password string) (*models.Token, error) {
	user, err := m.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("błąd pobierania użytkownika: %w", err)
	}
	if !user.IsActive || !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := m.users.GetTokenByUser(ctx, user.ID)
	switch {
	case err == nil && !token.Expired(m.ttl, m.now()):
		return token, nil
	case err == nil:
		if err := m.users.DeleteToken(ctx, token.Key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("błąd usuwania wygasłego tokenu: %w", err)
		}
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("błąd pobierania tokenu: %w", err)
	}

	return m.issue(ctx, user.ID)
}

func (m *Manager) issue(ctx context.Context, userID int64) (*models.Token, error) {
	key, err := generateKey()
	if err != nil {
		return nil, err
	}

	token := &models.Token{Key: key, UserID: userID, CreatedAt: m.now()}
	if err := m.users.CreateToken(ctx, token); err != nil {
		// Równoległe logowanie zdążyło utworzyć token
		if errors.Is(err, storage.ErrConflict) {
			return m.users.GetTokenByUser(ctx, userID)
		}
		return nil, fmt.Errorf("błąd tworzenia tokenu: %w", err)
	}
	return token, nil
}

// Authenticate zwraca właściciela tokenu; wygasłe tokeny są usuwane
func (m *Manager) Authenticate(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, ErrInvalidToken
	}

	token, err := m.users.GetToken(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("błąd pobierania tokenu: %w", err)
	}

	if token.Expired(m.ttl, m.now()) {
		if err := m.users.DeleteToken(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("błąd usuwania wygasłego tokenu: %w", err)
		}
		return nil, ErrInvalidToken
	}

	user, err := m.users.GetUser(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("błąd pobierania użytkownika: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// Logout unieważnia token
func (m *Manager) Logout(ctx context.Context, key string) error {
	if err := m.users.DeleteToken(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("błąd usuwania tokenu: %w", err)
	}
	return nil
}

// HashPassword zwraca hash bcrypt hasła
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("błąd hashowania hasła: %w", err)
	}
	return string(hash), nil
}

// CheckPassword porównuje hasło z hashem bcrypt
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// generateKey generuje losowy klucz tokenu
func generateKey() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("błąd generowania tokenu: %w", err)
	}
	return hex.EncodeToString(b), nil
}
