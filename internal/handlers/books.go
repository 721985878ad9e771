package handlers

import (
	"net/http"

	"library-api/internal/library"
	"library-api/internal/models"
	"library-api/internal/storage"
)

// BooksHandler obsługuje operacje na książkach
type BooksHandler struct {
	svc *library.Service
}

// NewBooksHandler tworzy nowy handler dla książek
func NewBooksHandler(svc *library.Service) *BooksHandler {
	return &BooksHandler{svc: svc}
}

// List zwraca listę książek (GET /libros/?search=&ordering=)
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	q := models.BookQuery{
		Search:   r.URL.Query().Get("search"),
		Ordering: models.ParseBookOrdering(r.URL.Query().Get("ordering")),
	}
	books, err := h.svc.ListBooks(r.Context(), currentUser(r), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(books))
}

// Show zwraca szczegóły książki (GET /libros/{id}/)
func (h *BooksHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, storage.ErrNotFound)
		return
	}
	book, err := h.svc.GetBook(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// Create dodaje książkę jako dostępną (POST /libros/)
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p bookPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, err)
		return
	}
	book := &models.Book{}
	if err := p.apply(book, false); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.CreateBook(r.Context(), currentUser(r), book); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

// Replace obsługuje PUT, Patch obsługuje PATCH
func (h *BooksHandler) Replace(w http.ResponseWriter, r *http.Request) { h.update(w, r, false) }
func (h *BooksHandler) Patch(w http.ResponseWriter, r *http.Request)   { h.update(w, r, true) }

func (h *BooksHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, storage.ErrNotFound)
		return
	}
	user := currentUser(r)

	book, err := h.svc.GetBook(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}
	var p bookPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, err)
		return
	}
	if err := p.apply(book, partial); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.UpdateBook(r.Context(), user, book); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// Delete usuwa książkę i jej wypożyczenia (DELETE /libros/{id}/)
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, storage.ErrNotFound)
		return
	}
	if err := h.svc.DeleteBook(r.Context(), currentUser(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
