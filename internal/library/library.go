// Package library łączy magazyn z regułami dostępu i składaniem raportów.
package library

import (
	"context"
	"errors"
	"fmt"

	"library-api/internal/access"
	"library-api/internal/models"
	"library-api/internal/storage"
)

// ErrForbidden oznacza brak uprawnień do operacji
var ErrForbidden = errors.New("you do not have permission to perform this action")

// Service wykonuje operacje biblioteki w imieniu użytkownika
type Service struct {
	store storage.Store
}

// New tworzy serwis nad magazynem
func New(store storage.Store) *Service {
	return &Service{store: store}
}

func authorize(user *models.User, action access.Action, resource access.Resource) error {
	if !access.Can(user, action, resource) {
		return ErrForbidden
	}
	return nil
}

// ---------------------------------------------------------------------------
// Słowniki
// ---------------------------------------------------------------------------

func (s *Service) ListEntries(ctx context.Context, user *models.User, kind models.CatalogKind) ([]*models.CatalogEntry, error) {
	if err := authorize(user, access.ActionRead, access.CatalogResource(kind)); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, kind)
}

func (s *Service) GetEntry(ctx context.Context, user *models.User, kind models.CatalogKind, id int64) (*models.CatalogEntry, error) {
	if err := authorize(user, access.ActionRead, access.CatalogResource(kind)); err != nil {
		return nil, err
	}
	return s.store.GetEntry(ctx, kind, id)
}

func (s *Service) CreateEntry(ctx context.Context, user *models.User, kind models.CatalogKind, entry *models.CatalogEntry) error {
	if err := authorize(user, access.ActionCreate, access.CatalogResource(kind)); err != nil {
		return err
	}
	return s.store.CreateEntry(ctx, kind, entry)
}

func (s *Service) UpdateEntry(ctx context.Context, user *models.User, kind models.CatalogKind, entry *models.CatalogEntry) error {
	if err := authorize(user, access.ActionUpdate, access.CatalogResource(kind)); err != nil {
		return err
	}
	return s.store.UpdateEntry(ctx, kind, entry)
}

func (s *Service) DeleteEntry(ctx context.Context, user *models.User, kind models.CatalogKind, id int64) error {
	if err := authorize(user, access.ActionDelete, access.CatalogResource(kind)); err != nil {
		return err
	}
	return s.store.DeleteEntry(ctx, kind, id)
}

// ---------------------------------------------------------------------------
// Książki
// ---------------------------------------------------------------------------

func (s *Service) ListBooks(ctx context.Context, user *models.User, q models.BookQuery) ([]*models.Book, error) {
	if err := authorize(user, access.ActionRead, access.ResourceBooks); err != nil {
		return nil, err
	}
	return s.store.ListBooks(ctx, q)
}

func (s *Service) GetBook(ctx context.Context, user *models.User, id int64) (*models.Book, error) {
	if err := authorize(user, access.ActionRead, access.ResourceBooks); err != nil {
		return nil, err
	}
	return s.store.GetBook(ctx, id)
}

func (s *Service) CreateBook(ctx context.Context, user *models.User, book *models.Book) error {
	if err := authorize(user, access.ActionCreate, access.ResourceBooks); err != nil {
		return err
	}
	return s.store.CreateBook(ctx, book)
}

func (s *Service) UpdateBook(ctx context.Context, user *models.User, book *models.Book) error {
	if err := authorize(user, access.ActionUpdate, access.ResourceBooks); err != nil {
		return err
	}
	return s.store.UpdateBook(ctx, book)
}

func (s *Service) DeleteBook(ctx context.Context, user *models.User, id int64) error {
	if err := authorize(user, access.ActionDelete, access.ResourceBooks); err != nil {
		return err
	}
	return s.store.DeleteBook(ctx, id)
}

// ---------------------------------------------------------------------------
// Wypożyczenia
// ---------------------------------------------------------------------------

// ListLoans zwraca wszystkie wypożyczenia administratorowi, a czytelnikowi tylko jego własne
func (s *Service) ListLoans(ctx context.Context, user *models.User, q models.LoanQuery) ([]*models.Loan, error) {
	if err := authorize(user, access.ActionRead, access.ResourceLoans); err != nil {
		return nil, err
	}
	q.UserID = 0
	if !user.IsAdmin() {
		q.UserID = user.ID
	}
	return s.store.ListLoans(ctx, q)
}

// GetLoan traktuje cudze wypożyczenie jak nieistniejące
func (s *Service) GetLoan(ctx context.Context, user *models.User, id int64) (*models.Loan, error) {
	if err := authorize(user, access.ActionRead, access.ResourceLoans); err != nil {
		return nil, err
	}
	loan, err := s.store.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanSeeLoan(user, loan) {
		return nil, fmt.Errorf("wypożyczenie %d: %w", id, storage.ErrNotFound)
	}
	return loan, nil
}

// CreateLoan wymusza czytelnika jako wypożyczającego; administrator może wskazać innego
func (s *Service) CreateLoan(ctx context.Context, user *models.User, loan *models.Loan) error {
	if err := authorize(user, access.ActionCreate, access.ResourceLoans); err != nil {
		return err
	}
	if !user.IsAdmin() || loan.UserID == 0 {
		loan.UserID = user.ID
	}
	if err := s.checkBorrower(ctx, loan.UserID); err != nil {
		return err
	}
	loan.ID = 0
	loan.LoanDate = models.Today()
	return s.store.CreateLoan(ctx, loan)
}

// UpdateLoan pozwala administratorowi albo wypożyczającemu zmienić wypożyczenie
func (s *Service) UpdateLoan(ctx context.Context, user *models.User, loan *models.Loan) error {
	if err := authorize(user, access.ActionUpdate, access.ResourceLoans); err != nil {
		return err
	}
	current, err := s.GetLoan(ctx, user, loan.ID)
	if err != nil {
		return err
	}
	if !access.CanModifyLoan(user, current) {
		return ErrForbidden
	}
	if !user.IsAdmin() {
		loan.UserID = current.UserID
	}
	if loan.UserID != current.UserID {
		if err := s.checkBorrower(ctx, loan.UserID); err != nil {
			return err
		}
	}
	return s.store.UpdateLoan(ctx, loan)
}

func (s *Service) DeleteLoan(ctx context.Context, user *models.User, id int64) error {
	if err := authorize(user, access.ActionDelete, access.ResourceLoans); err != nil {
		return err
	}
	current, err := s.GetLoan(ctx, user, id)
	if err != nil {
		return err
	}
	if !access.CanModifyLoan(user, current) {
		return ErrForbidden
	}
	return s.store.DeleteLoan(ctx, id)
}

// checkBorrower wymaga istniejącego, aktywnego konta wypożyczającego
func (s *Service) checkBorrower(ctx context.Context, userID int64) error {
	borrower, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &storage.ReferenceError{Field: "usuario", ID: userID}
		}
		return fmt.Errorf("błąd sprawdzania wypożyczającego: %w", err)
	}
	if !borrower.IsActive {
		return &storage.ReferenceError{Field: "usuario", ID: userID}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Raporty
// ---------------------------------------------------------------------------

// MostBorrowed zwraca najczęściej wypożyczane książki w kolejności liczby wypożyczeń
func (s *Service) MostBorrowed(ctx context.Context, user *models.User) ([]models.MostBorrowed, error) {
	if err := authorize(user, access.ActionRead, access.ResourceReports); err != nil {
		return nil, err
	}

	counts, err := s.store.CountLoansByBook(ctx, models.MostBorrowedLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.BookID)
	}
	books, err := s.store.GetBooks(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Kolejność wyznacza zliczanie, nie pobranie książek
	result := make([]models.MostBorrowed, 0, len(counts))
	for _, c := range counts {
		book, ok := books[c.BookID]
		if !ok {
			continue
		}
		result = append(result, models.MostBorrowed{Book: *book, TimesLoaned: c.Total})
	}
	return result, nil
}

func (s *Service) Availability(ctx context.Context, user *models.User) (models.Availability, error) {
	if err := authorize(user, access.ActionRead, access.ResourceReports); err != nil {
		return models.Availability{}, err
	}
	return s.store.CountAvailability(ctx)
}

func (s *Service) LoanHistory(ctx context.Context, user *models.User) ([]models.DailyLoans, error) {
	if err := authorize(user, access.ActionRead, access.ResourceReports); err != nil {
		return nil, err
	}
	return s.store.CountLoansByDate(ctx)
}
