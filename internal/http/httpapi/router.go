package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"docconvert/internal/http/handlers"
	"docconvert/internal/middleware"
)

// Options carries everything the router needs besides the handlers.
type Options struct {
	Logger        zerolog.Logger
	CountryLookup middleware.CountryLookup
	DefaultLocale string
	Sweeper       middleware.Sweepable
	ConvertLimit  int
	ConvertPer    time.Duration
}

// NewRouter assembles the HTTP surface.
func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Locale(opts.DefaultLocale, opts.CountryLookup))
	r.Use(middleware.Logger(opts.Logger))
	if opts.Sweeper != nil {
		r.Use(middleware.Sweep(opts.Sweeper))
	}

	r.Get("/", app.Index)
	r.Get("/v1/healthz", app.Health)
	r.Get("/status", app.Status)

	r.Group(func(r chi.Router) {
		if opts.ConvertLimit > 0 {
			r.Use(middleware.RateLimit(opts.ConvertLimit, opts.ConvertPer))
		}
		r.Post("/convert", app.Convert)
	})

	r.Post("/create-checkout-session", app.CreateCheckoutSession)
	r.Get("/payment-success", app.PaymentSuccess)

	return r
}
