package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/http/handlers"
)

const requestTimeout = 20 * time.Second

// NewRouter builds the HTTP routing tree. live is mounted at /ws outside the
// request timeout, since websocket connections are long-lived.
func NewRouter(api *handlers.API, live http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RecoverJSON)
	r.Use(RequestLogger(api))

	if live != nil {
		r.Get("/ws", live.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/healthz", api.Health)
		r.Route("/api", func(apiRouter chi.Router) {
			apiRouter.Get("/status", api.Status)
			apiRouter.Post("/hotspot/{intent}", func(w http.ResponseWriter, r *http.Request) {
				api.Transition(w, r, chi.URLParam(r, "intent"))
			})

			apiRouter.Get("/clients", api.ListClients)
			apiRouter.Post("/clients/{mac}/kick", func(w http.ResponseWriter, r *http.Request) {
				api.KickClient(w, r, chi.URLParam(r, "mac"))
			})
			apiRouter.Put("/clients/{mac}/name", func(w http.ResponseWriter, r *http.Request) {
				api.RenameClient(w, r, chi.URLParam(r, "mac"))
			})

			apiRouter.Get("/policy", api.GetPolicy)
			apiRouter.Put("/policy/limit", api.SetLimit)

			apiRouter.Get("/blacklist", api.ListBlacklist)
			apiRouter.Post("/blacklist/{mac}", func(w http.ResponseWriter, r *http.Request) {
				api.AddToBlacklist(w, r, chi.URLParam(r, "mac"))
			})
			apiRouter.Delete("/blacklist/{mac}", func(w http.ResponseWriter, r *http.Request) {
				api.RemoveFromBlacklist(w, r, chi.URLParam(r, "mac"))
			})

			apiRouter.Get("/events", api.ListKickEvents)
			apiRouter.Get("/sightings", api.ListSightings)
			apiRouter.Get("/wifi", api.WiFi)
			apiRouter.Post("/refresh", api.Refresh)
		})
	})
	return r
}
