// Package access rozstrzyga uprawnienia użytkowników do zasobów biblioteki.
package access

import (
	"net/http"

	"library-api/internal/models"
)

// Action to operacja wykonywana na zasobie
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ActionFor mapuje metodę HTTP na akcję
func ActionFor(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	}
	return ""
}

// Resource to chroniony rodzaj danych
type Resource string

const (
	ResourceAuthors    Resource = "authors"
	ResourcePublishers Resource = "publishers"
	ResourceGenres     Resource = "genres"
	ResourceBooks      Resource = "books"
	ResourceLoans      Resource = "loans"
	ResourceReports    Resource = "reports"
)

// CatalogResource zwraca zasób odpowiadający słownikowi
func CatalogResource(kind models.CatalogKind) Resource {
	return Resource(kind)
}

// Can sprawdza czy użytkownik może wykonać akcję na zasobie.
// Administrator może wszystko; czytelnik czyta katalog i raporty oraz obsługuje
// własne wypożyczenia (własność sprawdza CanModifyLoan).
func Can(user *models.User, action Action, resource Resource) bool {
	if user == nil || !user.IsActive {
		return false
	}
	if user.IsAdmin() {
		return true
	}

	switch resource {
	case ResourceAuthors, ResourcePublishers, ResourceGenres, ResourceBooks, ResourceReports:
		return action == ActionRead
	case ResourceLoans:
		return action != ""
	}
	return false
}

// CanSeeLoan sprawdza czy użytkownik widzi wypożyczenie
func CanSeeLoan(user *models.User, loan *models.Loan) bool {
	if user == nil || loan == nil || !user.IsActive {
		return false
	}
	return user.IsAdmin() || loan.UserID == user.ID
}

// CanModifyLoan sprawdza czy użytkownik może zmienić lub usunąć wypożyczenie
func CanModifyLoan(user *models.User, loan *models.Loan) bool {
	return CanSeeLoan(user, loan)
}
