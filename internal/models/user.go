package models

import "time"

// UserRole określa rolę użytkownika w systemie
type UserRole string

const (
	RoleReader UserRole = "reader" // Czytelnik - może przeglądać katalog i wypożyczać
	RoleAdmin  UserRole = "admin"  // Administrator - pełny dostęp do zapisu
)

// Valid sprawdza czy rola jest znana
func (r UserRole) Valid() bool {
	return r == RoleReader || r == RoleAdmin
}

// User reprezentuje konto użytkownika systemu
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin sprawdza czy użytkownik jest administratorem
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Token to nieprzezroczysty klucz logowania przypisany do użytkownika
type Token struct {
	Key       string    `json:"token" db:"token_key"`
	UserID    int64     `json:"-" db:"user_id"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// Expired sprawdza czy token jest starszy niż ttl (ttl <= 0 oznacza brak wygasania)
func (t *Token) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.After(t.CreatedAt.Add(ttl))
}
