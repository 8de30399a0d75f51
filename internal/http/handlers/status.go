package handlers

import "net/http"

// Status reports the caller's current quota state.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	sess := a.Sessions.Key(w, r)
	st, err := a.Ledger.Check(r.Context(), sess)
	if err != nil {
		a.Logger.Error().Err(err).Msg("quota check failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load quota state")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"conversions_used":      st.Used,
		"conversions_budget":    st.Budget,
		"conversions_remaining": st.Remaining(),
		"paid":                  st.Paid,
		"free_limit":            a.Cfg.FreeLimit,
		"paid_amount":           a.Cfg.TopUpAmount,
	})
}

// Health answers liveness probes.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"status": "ok"})
}
