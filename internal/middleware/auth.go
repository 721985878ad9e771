// Package middleware zawiera uwierzytelnianie tokenem i sprawdzanie uprawnień.
package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"library-api/internal/access"
	"library-api/internal/models"
	"library-api/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Komunikaty błędów zwracane w polu "detail"
const (
	MsgNotAuthenticated = "Authentication credentials were not provided."
	MsgInvalidToken     = "Invalid token."
	MsgForbidden        = "You do not have permission to perform this action."
	MsgInternal         = "Internal server error."
)

// Klucze do przechowywania wartości w context
type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

// Authenticator zwraca właściciela tokenu
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*models.User, error)
}

// Auth wymaga poprawnego tokenu i dodaje użytkownika do kontekstu
func Auth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := tokenFromHeader(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, MsgNotAuthenticated)
				return
			}
			if key == "" {
				unauthorized(w, MsgInvalidToken)
				return
			}

			user, err := auth.Authenticate(r.Context(), key)
			if err != nil {
				if errors.Is(err, session.ErrInvalidToken) {
					unauthorized(w, MsgInvalidToken)
					return
				}
				log.Printf("Błąd uwierzytelniania: %v", err)
				writeDetail(w, http.StatusInternalServerError, MsgInternal)
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = context.WithValue(ctx, tokenKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission sprawdza uprawnienie do zasobu według metody żądania
func RequirePermission(resource access.Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				unauthorized(w, MsgNotAuthenticated)
				return
			}
			if !access.Can(user, access.ActionFor(r.Method), resource) {
				writeDetail(w, http.StatusForbidden, MsgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tokenFromHeader wyciąga klucz z "Token <key>" albo "Bearer <key>".
// ok=false oznacza brak nagłówka w obsługiwanym schemacie.
func tokenFromHeader(header string) (key string, ok bool) {
	parts := strings.Fields(header)
	if len(parts) == 0 {
		return "", false
	}
	switch strings.ToLower(parts[0]) {
	case "token", "bearer":
	default:
		return "", false
	}
	if len(parts) != 2 {
		return "", true
	}
	return parts[1], true
}

// WithUser dodaje użytkownika do kontekstu
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext pobiera użytkownika z kontekstu; nil gdy żądanie nie przeszło przez Auth
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// TokenFromContext pobiera klucz tokenu, którym uwierzytelniono żądanie
func TokenFromContext(ctx context.Context) string {
	key, _ := ctx.Value(tokenKey).(string)
	return key
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Token")
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"detail": detail}); err != nil {
		log.Printf("Błąd zapisu odpowiedzi: %v", err)
	}
}
