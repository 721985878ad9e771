package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"library-api/internal/access"
	"library-api/internal/library"
	"library-api/internal/middleware"
	"library-api/internal/models"
	"library-api/internal/session"
)

// catalogPaths mapuje ścieżki słowników na ich rodzaje
var catalogPaths = map[string]models.CatalogKind{
	"/autores":     models.KindAuthor,
	"/editoriales": models.KindPublisher,
	"/generos":     models.KindGenre,
}

// NewRouter składa wszystkie trasy API
func NewRouter(svc *library.Service, sessions *session.Manager) http.Handler {
	r := chi.NewRouter()

	// Middleware do logowania requestów
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	// Końcowy ukośnik jest opcjonalny
	r.Use(chimw.StripSlashes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
	})

	authHandler := NewAuthHandler(sessions)
	booksHandler := NewBooksHandler(svc)
	loansHandler := NewLoansHandler(svc)
	reportsHandler := NewReportsHandler(svc)

	// Publiczne
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/login", authHandler.HandleLogin)

	// Wymagające tokenu
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sessions))

		r.Post("/logout", authHandler.HandleLogout)

		for path, kind := range catalogPaths {
			h := NewCatalogHandler(svc, kind)
			r.Route(path, func(r chi.Router) {
				r.Use(middleware.RequirePermission(access.CatalogResource(kind)))
				r.Get("/", h.List)
				r.Post("/", h.Create)
				r.Get("/{id}", h.Show)
				r.Put("/{id}", h.Replace)
				r.Patch("/{id}", h.Patch)
				r.Delete("/{id}", h.Delete)
			})
		}

		r.Route("/libros", func(r chi.Router) {
			r.Use(middleware.RequirePermission(access.ResourceBooks))
			r.Get("/", booksHandler.List)
			r.Post("/", booksHandler.Create)
			r.Get("/{id}", booksHandler.Show)
			r.Put("/{id}", booksHandler.Replace)
			r.Patch("/{id}", booksHandler.Patch)
			r.Delete("/{id}", booksHandler.Delete)
		})

		// Własność wypożyczenia sprawdza serwis
		r.Route("/prestamos", func(r chi.Router) {
			r.Use(middleware.RequirePermission(access.ResourceLoans))
			r.Get("/", loansHandler.List)
			r.Post("/", loansHandler.Create)
			r.Get("/{id}", loansHandler.Show)
			r.Put("/{id}", loansHandler.Replace)
			r.Patch("/{id}", loansHandler.Patch)
			r.Delete("/{id}", loansHandler.Delete)
		})

		r.Route("/reportes", func(r chi.Router) {
			r.Use(middleware.RequirePermission(access.ResourceReports))
			r.Get("/mas-prestados", reportsHandler.MostBorrowed)
			r.Get("/disponibilidad", reportsHandler.Availability)
			r.Get("/historial", reportsHandler.History)
		})
	})

	return r
}
