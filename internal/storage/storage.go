// Package storage definiuje kontrakt magazynu danych biblioteki.
package storage

import (
	"context"
	"errors"

	"library-api/internal/models"
)

var (
	// ErrNotFound oznacza brak rekordu o podanym id
	ErrNotFound = errors.New("record not found")
	// ErrConflict oznacza naruszenie unikalności (np. kod książki, nazwa użytkownika)
	ErrConflict = errors.New("unique constraint violated")
	// ErrInvalidReference oznacza odwołanie do nieistniejącego rekordu
	ErrInvalidReference = errors.New("referenced record does not exist")
	// ErrBookOnLoan oznacza próbę otwarcia drugiego wypożyczenia tej samej książki
	ErrBookOnLoan = errors.New("book already has an active loan")
)

// ReferenceError wskazuje pole, którego referencja nie istnieje
type ReferenceError struct {
	Field string
	ID    int64
}

func (e *ReferenceError) Error() string {
	return ErrInvalidReference.Error() + ": " + e.Field
}

// Unwrap pozwala dopasować błąd przez errors.Is(err, ErrInvalidReference)
func (e *ReferenceError) Unwrap() error {
	return ErrInvalidReference
}

// ConflictError wskazuje pole, którego wartość musi być unikalna
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return ErrConflict.Error() + ": " + e.Field
}

// Unwrap pozwala dopasować błąd przez errors.Is(err, ErrConflict)
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// CatalogStore obsługuje słowniki: autorów, wydawnictwa i gatunki
type CatalogStore interface {
	ListEntries(ctx context.Context, kind models.CatalogKind) ([]*models.CatalogEntry, error)
	GetEntry(ctx context.Context, kind models.CatalogKind, id int64) (*models.CatalogEntry, error)
	CreateEntry(ctx context.Context, kind models.CatalogKind, entry *models.CatalogEntry) error
	UpdateEntry(ctx context.Context, kind models.CatalogKind, entry *models.CatalogEntry) error
	// DeleteEntry usuwa wpis razem z jego książkami i ich wypożyczeniami
	DeleteEntry(ctx context.Context, kind models.CatalogKind, id int64) error
}

// BookStore obsługuje książki
type BookStore interface {
	ListBooks(ctx context.Context, q models.BookQuery) ([]*models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	GetBooks(ctx context.Context, ids []int64) (map[int64]*models.Book, error)
	// CreateBook zapisuje książkę jako dostępną
	CreateBook(ctx context.Context, book *models.Book) error
	// UpdateBook nie zmienia flagi dostępności, należy ona do wypożyczeń
	UpdateBook(ctx context.Context, book *models.Book) error
	DeleteBook(ctx context.Context, id int64) error
}

// LoanStore obsługuje wypożyczenia.
// Każdy zapis wypożyczenia przelicza dostępność książki w tej samej transakcji:
// książka jest dostępna, gdy nie ma żadnego aktywnego wypożyczenia.
type LoanStore interface {
	ListLoans(ctx context.Context, q models.LoanQuery) ([]*models.Loan, error)
	GetLoan(ctx context.Context, id int64) (*models.Loan, error)
	CreateLoan(ctx context.Context, loan *models.Loan) error
	UpdateLoan(ctx context.Context, loan *models.Loan) error
	// DeleteLoan usuwa wypożyczenie; aktywne zwalnia książkę
	DeleteLoan(ctx context.Context, id int64) error
}

// ReportStore wykonuje zapytania agregujące
type ReportStore interface {
	// CountLoansByBook zwraca liczby wypożyczeń malejąco, remisy po id książki rosnąco
	CountLoansByBook(ctx context.Context, limit int) ([]models.BorrowCount, error)
	CountAvailability(ctx context.Context) (models.Availability, error)
	CountLoansByDate(ctx context.Context) ([]models.DailyLoans, error)
}

// UserStore obsługuje konta i tokeny logowania
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]*models.User, error)

	GetTokenByUser(ctx context.Context, userID int64) (*models.Token, error)
	GetToken(ctx context.Context, key string) (*models.Token, error)
	CreateToken(ctx context.Context, token *models.Token) error
	DeleteToken(ctx context.Context, key string) error
}

// Store łączy wszystkie części magazynu
type Store interface {
	CatalogStore
	BookStore
	LoanStore
	ReportStore
	UserStore
	Close() error
}
