package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"library-api/internal/library"
	"library-api/internal/middleware"
	"library-api/internal/models"
	"library-api/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Komunikaty w polu "detail"
const (
	msgNotFound  = "Not found."
	msgParseJSON = "JSON parse error"
)

// errMalformedJSON oznacza ciało żądania, którego nie da się zdekodować
var errMalformedJSON = errors.New("malformed JSON body")

// writeJSON zapisuje odpowiedź JSON z podanym statusem
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Błąd zapisu odpowiedzi: %v", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// maxBodyBytes ogranicza rozmiar ciała żądania
const maxBodyBytes = 1 << 20

// decodeJSON dekoduje ciało żądania; puste ciało daje pusty obiekt
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("błąd odczytu ciała żądania: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if !json.Valid(body) {
		return errMalformedJSON
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedJSON, err)
	}
	return nil
}

// idParam czyta {id} z adresu; niepoprawne id traktujemy jak brak rekordu
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// currentUser zwraca użytkownika ustawionego przez middleware.Auth
func currentUser(r *http.Request) *models.User {
	return middleware.UserFromContext(r.Context())
}

// conflictMessages to komunikaty dla pól, które muszą być unikalne
var conflictMessages = map[string]string{
	"codigo":   "libro with this codigo already exists.",
	"username": "A user with that username already exists.",
}

// writeError mapuje błędy warstwy serwisu na odpowiedzi HTTP
func writeError(w http.ResponseWriter, err error) {
	var (
		validation *models.ValidationError
		reference  *storage.ReferenceError
		conflict   *storage.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, validation.Fields)
	case errors.As(err, &reference):
		msg := fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", reference.ID)
		writeJSON(w, http.StatusBadRequest, map[string][]string{reference.Field: {msg}})
	case errors.As(err, &conflict):
		msg, ok := conflictMessages[conflict.Field]
		if !ok {
			msg = fmt.Sprintf("Object with this %s already exists.", conflict.Field)
		}
		writeJSON(w, http.StatusBadRequest, map[string][]string{conflict.Field: {msg}})
	case errors.Is(err, storage.ErrBookOnLoan):
		writeJSON(w, http.StatusBadRequest, map[string][]string{"libro": {"This book already has an active loan."}})
	case errors.Is(err, errMalformedJSON):
		writeDetail(w, http.StatusBadRequest, msgParseJSON)
	case errors.Is(err, storage.ErrNotFound):
		writeDetail(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, library.ErrForbidden):
		writeDetail(w, http.StatusForbidden, middleware.MsgForbidden)
	default:
		log.Printf("Błąd obsługi żądania: %v", err)
		writeDetail(w, http.StatusInternalServerError, middleware.MsgInternal)
	}
}

// orEmpty zamienia nil na pusty slice, żeby lista kodowała się jako []
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
