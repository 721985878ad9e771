package handlers

import (
	"net/http"

	"library-api/internal/library"
)

// ReportsHandler udostępnia raporty tylko do odczytu
type ReportsHandler struct {
	svc *library.Service
}

// NewReportsHandler tworzy handler raportów
func NewReportsHandler(svc *library.Service) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// MostBorrowed zwraca najczęściej wypożyczane książki (GET /reportes/mas-prestados/)
func (h *ReportsHandler) MostBorrowed(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.MostBorrowed(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(rows))
}

// Availability zwraca liczby dostępnych i wypożyczonych (GET /reportes/disponibilidad/)
func (h *ReportsHandler) Availability(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Availability(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// History zwraca liczbę wypożyczeń per dzień (GET /reportes/historial/)
func (h *ReportsHandler) History(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.LoanHistory(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(rows))
}
