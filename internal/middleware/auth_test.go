package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("unit-test-secret")

func signTestToken(t *testing.T, address string, expired bool) string {
	t.Helper()

	expiry := time.Now().Add(time.Hour)
	if expired {
		expiry = time.Now().Add(-time.Hour)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		NeoAddress: address,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthFixture() (http.Handler, *string) {
	var seenCaller string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if caller, ok := CallerFromContext(r.Context()); ok {
			seenCaller = caller
		}
		w.WriteHeader(http.StatusOK)
	})
	m := NewAuthMiddleware(testSecret, nil, []string{"/healthz"})
	return m.Handler(next), &seenCaller
}

func TestAuthAcceptsValidToken(t *testing.T) {
	handler, seenCaller := newAuthFixture()

	req := httptest.NewRequest(http.MethodPost, "/locks", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "NCallerAddress", false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if *seenCaller != "NCallerAddress" {
		t.Fatalf("caller = %q, want NCallerAddress", *seenCaller)
	}
}

func TestAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	handler, _ := newAuthFixture()

	for _, header := range []string{"", "NotBearer token", "Bearer "} {
		req := httptest.NewRequest(http.MethodPost, "/locks", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	handler, _ := newAuthFixture()

	req := httptest.NewRequest(http.MethodPost, "/locks", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "NCallerAddress", true))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthRejectsTokenWithoutAddress(t *testing.T) {
	handler, _ := newAuthFixture()

	req := httptest.NewRequest(http.MethodPost, "/locks", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "", false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthSkipsConfiguredPathsAndReads(t *testing.T) {
	handler, _ := newAuthFixture()

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/healthz"},
		{http.MethodGet, "/locks"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: status = %d, want 200", tc.method, tc.path, rec.Code)
		}
	}
}
