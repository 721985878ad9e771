package handlers

import (
	"net/http"

	"library-api/internal/library"
	"library-api/internal/models"
	"library-api/internal/storage"
)

// LoansHandler obsługuje wypożyczenia
type LoansHandler struct {
	svc *library.Service
}

// NewLoansHandler tworzy handler wypożyczeń
func NewLoansHandler(svc *library.Service) *LoansHandler {
	return &LoansHandler{svc: svc}
}

// List zwraca wypożyczenia widoczne dla użytkownika (GET /prestamos/)
func (h *LoansHandler) List(w http.ResponseWriter, r *http.Request) {
	q := models.LoanQuery{
		Search:   r.URL.Query().Get("search"),
		Ordering: models.ParseLoanOrdering(r.URL.Query().Get("ordering")),
	}
	loans, err := h.svc.ListLoans(r.Context(), currentUser(r), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(loans))
}

// Show zwraca wypożyczenie (GET /prestamos/{id}/)
func (h *LoansHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, storage.ErrNotFound)
		return
	}
	loan, err := h.svc.GetLoan(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// Create otwiera wypożyczenie (POST /prestamos/)
func (h *LoansHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p loanPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, err)
		return
	}
	loan := &models.Loan{}
	if err := p.apply(loan, false); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.CreateLoan(r.Context(), currentUser(r), loan); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// Replace obsługuje PUT, Patch obsługuje PATCH
func (h *LoansHandler) Replace(w http.ResponseWriter, r *http.Request) { h.update(w, r, false) }
func (h *LoansHandler) Patch(w http.ResponseWriter, r *http.Request)   { h.update(w, r, true) }

func (h *LoansHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, storage.ErrNotFound)
		return
	}
	user := currentUser(r)

	loan, err := h.svc.GetLoan(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}
	var p loanPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, err)
		return
	}
	if err := p.apply(loan, partial); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.UpdateLoan(r.Context(), user, loan); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// Delete usuwa wypożyczenie; aktywne zwalnia książkę (DELETE /prestamos/{id}/)
func (h *LoansHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, storage.ErrNotFound)
		return
	}
	if err := h.svc.DeleteLoan(r.Context(), currentUser(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
