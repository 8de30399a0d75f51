package handlers

import "net/http"

// CreateCheckoutSession starts a payment flow with the provider and
// remembers the returned session ID as the pending-payment nonce.
func (a *App) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	sess := a.Sessions.Key(w, r)
	if a.Payments == nil {
		a.error(w, http.StatusServiceUnavailable, "payment_unavailable", a.msg(r, "payment_unavailable"))
		return
	}

	successURL := a.Cfg.PublicBaseURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := a.Cfg.PublicBaseURL + "/?payment=cancelled"
	checkout, err := a.Payments.CreateCheckoutSession(r.Context(), successURL, cancelURL)
	if err != nil {
		// Session state stays untouched on provider failure.
		a.Logger.Error().Err(err).Msg("create checkout session failed")
		a.error(w, http.StatusServiceUnavailable, "payment_unavailable", a.msg(r, "payment_unavailable"))
		return
	}

	a.Sessions.SetPendingCheckout(sess, checkout.ID)
	a.json(w, http.StatusOK, map[string]any{"url": checkout.URL})
}

// PaymentSuccess is the provider redirect target. The returned session
// identifier must match the stored nonce exactly and the provider must
// report the session paid; only then is the top-up granted, exactly once.
func (a *App) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	sess := a.Sessions.Key(w, r)
	id := r.URL.Query().Get("session_id")

	if a.Payments == nil || !a.Sessions.PendingMatches(sess, id) {
		http.Redirect(w, r, "/?payment=error", http.StatusSeeOther)
		return
	}

	checkout, err := a.Payments.RetrieveSession(r.Context(), id)
	if err != nil {
		a.Logger.Error().Err(err).Msg("retrieve checkout session failed")
		http.Redirect(w, r, "/?payment=error", http.StatusSeeOther)
		return
	}
	if !checkout.Paid() {
		// Keep the nonce: the provider may still confirm this checkout.
		http.Redirect(w, r, "/?payment=error", http.StatusSeeOther)
		return
	}
	if !a.Sessions.ConsumePendingCheckout(sess, id) {
		// Lost a race with a concurrent callback for the same nonce.
		http.Redirect(w, r, "/?payment=error", http.StatusSeeOther)
		return
	}

	if err := a.Ledger.GrantTopUp(r.Context(), sess, a.Cfg.TopUpAmount); err != nil {
		// Restore the nonce so the confirmed payment can still be
		// redeemed once the ledger recovers.
		a.Sessions.SetPendingCheckout(sess, id)
		a.Logger.Error().Err(err).Msg("grant top-up failed")
		http.Redirect(w, r, "/?payment=error", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/?payment=success", http.StatusSeeOther)
}
