package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"docconvert/internal/convert"
	"docconvert/internal/infra"
	"docconvert/internal/payment"
	"docconvert/internal/quota"
	"docconvert/internal/session"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Cfg       *infra.Config
	Logger    zerolog.Logger
	Sessions  *session.Store
	Ledger    quota.Ledger
	Converter *convert.Service
	// Payments is nil when the provider is not configured; the payment
	// endpoints then answer 503.
	Payments *payment.Client
}

// NewApp builds the handler container.
func NewApp(cfg *infra.Config, logger zerolog.Logger, sessions *session.Store, ledger quota.Ledger, converter *convert.Service, payments *payment.Client) *App {
	return &App{
		Cfg:       cfg,
		Logger:    logger,
		Sessions:  sessions,
		Ledger:    ledger,
		Converter: converter,
		Payments:  payments,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}
