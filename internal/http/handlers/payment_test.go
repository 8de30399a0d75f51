package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docconvert/internal/quota"
)

// fakeProvider mimics the hosted-checkout API: one createable session
// whose paid status the test controls.
type fakeProvider struct {
	sessionID string
	paid      bool
	createErr bool
}

func (p *fakeProvider) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/checkout/sessions":
			if p.createErr {
				http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"id":             p.sessionID,
				"url":            "https://checkout.example/" + p.sessionID,
				"payment_status": "unpaid",
			})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/checkout/sessions/"):
			status := "unpaid"
			if p.paid {
				status = "paid"
			}
			json.NewEncoder(w).Encode(map[string]string{
				"id":             strings.TrimPrefix(r.URL.Path, "/v1/checkout/sessions/"),
				"payment_status": status,
			})
		default:
			http.NotFound(w, r)
		}
	}
}

func newPaymentEnv(t *testing.T, p *fakeProvider) *testEnv {
	t.Helper()
	srv := httptest.NewServer(p.handler())
	t.Cleanup(srv.Close)
	return newTestEnv(t, envConfig{paymentBaseURL: srv.URL})
}

func (e *testEnv) startCheckout(t *testing.T) string {
	t.Helper()
	w := e.do(t, httptest.NewRequest(http.MethodPost, "/create-checkout-session", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("create-checkout-session status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode checkout response: %v", err)
	}
	return body.URL
}

func (e *testEnv) quotaState(t *testing.T) (used, budget int, paid bool) {
	t.Helper()
	w := e.do(t, httptest.NewRequest(http.MethodGet, "/status", nil))
	var st struct {
		Used   int  `json:"conversions_used"`
		Budget int  `json:"conversions_budget"`
		Paid   bool `json:"paid"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return st.Used, st.Budget, st.Paid
}

func TestCheckoutAndConfirmedPaymentGrantsTopUp(t *testing.T) {
	provider := &fakeProvider{sessionID: "cs_test_abc", paid: true}
	env := newPaymentEnv(t, provider)

	url := env.startCheckout(t)
	if !strings.Contains(url, "cs_test_abc") {
		t.Fatalf("checkout url = %q", url)
	}

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/payment-success?session_id=cs_test_abc", nil))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/?payment=success" {
		t.Fatalf("Location = %q, want /?payment=success", got)
	}

	_, budget, paid := env.quotaState(t)
	if budget != 3+50 || !paid {
		t.Fatalf("budget = %d paid = %v, want 53 and true", budget, paid)
	}

	// The nonce is consumed: replaying the callback grants nothing more.
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/payment-success?session_id=cs_test_abc", nil))
	if got := w.Header().Get("Location"); got != "/?payment=error" {
		t.Fatalf("replay Location = %q, want /?payment=error", got)
	}
	if _, budget, _ := env.quotaState(t); budget != 53 {
		t.Fatalf("budget after replay = %d, want 53", budget)
	}
}

func TestPaymentSuccessRejectsMismatchedNonce(t *testing.T) {
	provider := &fakeProvider{sessionID: "cs_test_abc", paid: true}
	env := newPaymentEnv(t, provider)
	env.startCheckout(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/payment-success?session_id=cs_forged", nil))
	if got := w.Header().Get("Location"); got != "/?payment=error" {
		t.Fatalf("Location = %q, want /?payment=error", got)
	}
	if _, budget, paid := env.quotaState(t); budget != 3 || paid {
		t.Fatalf("budget = %d paid = %v after forged callback, want 3 and false", budget, paid)
	}
}

func TestPaymentSuccessRejectsUnpaidSession(t *testing.T) {
	provider := &fakeProvider{sessionID: "cs_test_abc", paid: false}
	env := newPaymentEnv(t, provider)
	env.startCheckout(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/payment-success?session_id=cs_test_abc", nil))
	if got := w.Header().Get("Location"); got != "/?payment=error" {
		t.Fatalf("Location = %q, want /?payment=error", got)
	}
	if _, budget, paid := env.quotaState(t); budget != 3 || paid {
		t.Fatalf("budget = %d paid = %v, want unchanged", budget, paid)
	}

	// The provider confirming later still redeems the same nonce.
	provider.paid = true
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/payment-success?session_id=cs_test_abc", nil))
	if got := w.Header().Get("Location"); got != "/?payment=success" {
		t.Fatalf("Location = %q, want /?payment=success", got)
	}
}

// flakyLedger fails a scripted number of top-up grants, then defers to
// the wrapped ledger.
type flakyLedger struct {
	quota.Ledger
	grantFailures int
}

func (l *flakyLedger) GrantTopUp(ctx context.Context, session string, amount int) error {
	if l.grantFailures > 0 {
		l.grantFailures--
		return errors.New("ledger unavailable")
	}
	return l.Ledger.GrantTopUp(ctx, session, amount)
}

func TestPaymentSuccessLedgerFailureKeepsNonce(t *testing.T) {
	provider := &fakeProvider{sessionID: "cs_test_abc", paid: true}
	srv := httptest.NewServer(provider.handler())
	t.Cleanup(srv.Close)
	env := newTestEnv(t, envConfig{
		paymentBaseURL: srv.URL,
		ledger:         &flakyLedger{Ledger: quota.NewMemoryLedger(3), grantFailures: 1},
	})
	env.startCheckout(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/payment-success?session_id=cs_test_abc", nil))
	if got := w.Header().Get("Location"); got != "/?payment=error" {
		t.Fatalf("Location = %q, want /?payment=error while ledger is down", got)
	}
	if _, budget, paid := env.quotaState(t); budget != 3 || paid {
		t.Fatalf("budget = %d paid = %v, want unchanged after failed grant", budget, paid)
	}

	// The paid checkout is not lost: replaying the callback redeems the
	// restored nonce once the ledger recovers.
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/payment-success?session_id=cs_test_abc", nil))
	if got := w.Header().Get("Location"); got != "/?payment=success" {
		t.Fatalf("retry Location = %q, want /?payment=success", got)
	}
	if _, budget, paid := env.quotaState(t); budget != 53 || !paid {
		t.Fatalf("budget = %d paid = %v after retry, want 53 and true", budget, paid)
	}
}

func TestCheckoutProviderFailure(t *testing.T) {
	provider := &fakeProvider{sessionID: "cs_x", createErr: true}
	env := newPaymentEnv(t, provider)

	w := env.do(t, httptest.NewRequest(http.MethodPost, "/create-checkout-session", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestCheckoutUnconfigured(t *testing.T) {
	env := newTestEnv(t, envConfig{})

	w := env.do(t, httptest.NewRequest(http.MethodPost, "/create-checkout-session", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}
