package httpapi

import (
	"net/http"
	"time"

	"vidgate/internal/http/handlers"
	"vidgate/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the HTTP surface: middleware chain, the three proxy
// routes and the built-in page. Unmatched paths and methods answer with the
// same JSON envelope the handlers use.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(app.Logger),
		chimiddleware.Recoverer,
		middleware.CORS(app.Config.CORSAllowedOrigins),
		middleware.Locale("en", lookup),
	)

	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	r.Get("/", app.Index)
	r.Get("/healthz", app.Health)
	r.Get("/openapi.json", app.OpenAPIJSON)
	r.Get("/docs", app.OpenAPIDocs)

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute, http.HandlerFunc(app.RateLimited))).
			Post("/generate", app.Generate)
		r.Get("/operation", app.Operation)
		r.Get("/video", app.Video)
	})

	return r
}
