package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func runLocale(t *testing.T, lookup CountryLookup, configure func(r *http.Request)) (string, string) {
	t.Helper()
	var locale, country string
	handler := Locale("en", lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.10:1234"
	if configure != nil {
		configure(r)
	}
	handler.ServeHTTP(httptest.NewRecorder(), r)
	return locale, country
}

func TestLocaleFromAcceptLanguage(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "indonesian", header: "id-ID,id;q=0.9", want: "id"},
		{name: "english", header: "en-US,en;q=0.8", want: "en"},
		{name: "quality ordering", header: "id;q=0.4,en;q=0.9", want: "en"},
		{name: "unsupported falls back", header: "fr-FR", want: "en"},
		{name: "garbage falls back", header: ";;;", want: "en"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			locale, _ := runLocale(t, nil, func(r *http.Request) {
				r.Header.Set("Accept-Language", tc.header)
			})
			if locale != tc.want {
				t.Fatalf("locale = %q, want %q", locale, tc.want)
			}
		})
	}
}

func TestLocaleFromGeoIPCountry(t *testing.T) {
	lookup := func(ip string) (string, error) {
		if ip != "198.51.100.10" {
			return "", errors.New("unexpected ip")
		}
		return "ID", nil
	}
	locale, country := runLocale(t, lookup, nil)
	if locale != "id" {
		t.Fatalf("locale = %q, want id", locale)
	}
	if country != "ID" {
		t.Fatalf("country = %q, want ID", country)
	}
}

func TestLocaleProxyHeaderBeatsLookup(t *testing.T) {
	lookup := func(ip string) (string, error) {
		t.Errorf("lookup should not run when a proxy header is present")
		return "", nil
	}
	_, country := runLocale(t, lookup, func(r *http.Request) {
		r.Header.Set("CF-IPCountry", "sg")
	})
	if country != "SG" {
		t.Fatalf("country = %q, want SG", country)
	}
}

func TestLocaleLookupErrorIgnored(t *testing.T) {
	lookup := func(ip string) (string, error) { return "", errors.New("db missing") }
	locale, country := runLocale(t, lookup, nil)
	if locale != "en" || country != "" {
		t.Fatalf("locale=%q country=%q, want en and empty", locale, country)
	}
}
