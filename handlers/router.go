package handlers

import (
	"log/slog"
	"net/http"

	"github.com/benflix/benflix/lib/auth"
	"github.com/benflix/benflix/lib/catalog"
	"github.com/benflix/benflix/lib/favorites"
	"github.com/benflix/benflix/lib/health"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Catalog   *catalog.Catalog
	Favorites *favorites.Service
	Auth      *auth.Service
	Health    health.Source
	Logger    *slog.Logger
}

// NewRouter mounts the JSON API.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", health.Check(d.Health, d.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(d.Auth))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", HandleSignUp(d.Auth, d.Logger))
			r.Post("/signin", HandleSignIn(d.Auth, d.Logger))
			r.Post("/signout", HandleSignOut(d.Auth, d.Logger))
			r.Get("/me", HandleMe(d.Logger))
		})

		r.Get("/categories", HandleCategories(d.Catalog, d.Logger))
		r.Get("/favorites", HandleFavorites(d.Favorites, d.Logger))

		r.Route("/shows/{id}", func(r chi.Router) {
			r.Get("/", HandleShow(d.Catalog, d.Logger))
			r.Get("/episodes", HandleEpisodes(d.Catalog, d.Logger))
			r.Get("/favorite", HandleIsFavorite(d.Favorites, d.Logger))
			r.Put("/favorite", HandleAddFavorite(d.Favorites, d.Logger))
			r.Delete("/favorite", HandleRemoveFavorite(d.Favorites, d.Logger))
			r.Post("/favorite/toggle", HandleToggleFavorite(d.Favorites, d.Logger))
		})
	})

	return r
}
