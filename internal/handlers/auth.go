package handlers

import (
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"

	"library-api/internal/middleware"
	"library-api/internal/models"
	"library-api/internal/session"
)

const (
	msgBadCredentials = "Unable to log in with provided credentials."
	maxFormMemory     = 1 << 20
)

// AuthHandler obsługuje logowanie i wylogowanie
type AuthHandler struct {
	sessions *session.Manager
}

// NewAuthHandler tworzy nowy handler autoryzacji
func NewAuthHandler(sessions *session.Manager) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type loginPayload struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// HandleLogin wydaje token (POST /login/); przyjmuje JSON albo formularz
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	p, err := readLogin(r)
	if err != nil {
		writeError(w, err)
		return
	}

	v := &models.ValidationError{}
	for field, value := range map[string]*string{"username": p.Username, "password": p.Password} {
		switch {
		case value == nil:
			v.Add(field, models.MsgRequired)
		case *value == "":
			v.Add(field, models.MsgBlank)
		}
	}
	if err := v.Err(); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.sessions.Login(r.Context(), *p.Username, *p.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {msgBadCredentials}})
			return
		}
		writeError(w, err)
		return
	}

	log.Printf("Użytkownik zalogowany: %s", *p.Username)
	writeJSON(w, http.StatusOK, token)
}

func readLogin(r *http.Request) (*loginPayload, error) {
	p := &loginPayload{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxFormMemory)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedJSON, err)
		}
		if values, ok := r.PostForm["username"]; ok && len(values) > 0 {
			p.Username = &values[0]
		}
		if values, ok := r.PostForm["password"]; ok && len(values) > 0 {
			p.Password = &values[0]
		}
		return p, nil
	}
	if err := decodeJSON(r, p); err != nil {
		return nil, err
	}
	return p, nil
}

// HandleLogout unieważnia token, którym uwierzytelniono żądanie (POST /logout/)
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
