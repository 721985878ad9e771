package handlers

import (
	"net/http"

	"library-api/internal/library"
	"library-api/internal/models"
	"library-api/internal/storage"
)

// CatalogHandler obsługuje jeden słownik: autorów, wydawnictwa albo gatunki
type CatalogHandler struct {
	svc  *library.Service
	kind models.CatalogKind
}

// NewCatalogHandler tworzy handler dla słownika
func NewCatalogHandler(svc *library.Service, kind models.CatalogKind) *CatalogHandler {
	return &CatalogHandler{svc: svc, kind: kind}
}

// List zwraca wszystkie wpisy (GET /autores/)
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListEntries(r.Context(), currentUser(r), h.kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(entries))
}

// Show zwraca jeden wpis (GET /autores/{id}/)
func (h *CatalogHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, storage.ErrNotFound)
		return
	}
	entry, err := h.svc.GetEntry(r.Context(), currentUser(r), h.kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Create dodaje wpis (POST /autores/)
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p entryPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, err)
		return
	}
	entry := &models.CatalogEntry{}
	if err := p.apply(entry, false); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.CreateEntry(r.Context(), currentUser(r), h.kind, entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Replace obsługuje PUT, Patch obsługuje PATCH
func (h *CatalogHandler) Replace(w http.ResponseWriter, r *http.Request) { h.update(w, r, false) }
func (h *CatalogHandler) Patch(w http.ResponseWriter, r *http.Request)   { h.update(w, r, true) }

func (h *CatalogHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, storage.ErrNotFound)
		return
	}
	user := currentUser(r)

	entry, err := h.svc.GetEntry(r.Context(), user, h.kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	var p entryPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, err)
		return
	}
	if err := p.apply(entry, partial); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.UpdateEntry(r.Context(), user, h.kind, entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Delete usuwa wpis razem z jego książkami (DELETE /autores/{id}/)
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, storage.ErrNotFound)
		return
	}
	if err := h.svc.DeleteEntry(r.Context(), currentUser(r), h.kind, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
