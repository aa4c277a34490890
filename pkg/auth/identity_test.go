package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dexchat/pkg/config"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestVerifyToken(t *testing.T) {
	config.SetRuntime(&config.RuntimeConfig{AuthSecrets: []string{"primary", "rotated"}})

	tok := sign(t, "primary", jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	owner, err := VerifyToken(tok)
	if err != nil || owner != "user-1" {
		t.Fatalf("VerifyToken = %q, %v", owner, err)
	}

	// Any configured secret validates; rotation keeps old tokens working.
	tok = sign(t, "rotated", jwt.MapClaims{"sub": "user-2", "exp": time.Now().Add(time.Hour).Unix()})
	owner, err = VerifyToken(tok)
	if err != nil || owner != "user-2" {
		t.Fatalf("rotated secret: %q, %v", owner, err)
	}
}

func TestVerifyTokenRejections(t *testing.T) {
	config.SetRuntime(&config.RuntimeConfig{AuthSecrets: []string{"primary"}})

	// Unknown secret.
	tok := sign(t, "other", jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Hour).Unix()})
	if _, err := VerifyToken(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// Expired.
	tok = sign(t, "primary", jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()})
	if _, err := VerifyToken(tok); err == nil {
		t.Fatalf("expired token accepted")
	}

	// No subject claim.
	tok = sign(t, "primary", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	if _, err := VerifyToken(tok); err == nil {
		t.Fatalf("token without sub accepted")
	}

	if _, err := VerifyToken("garbage"); err == nil {
		t.Fatalf("garbage token accepted")
	}
}

func TestRequireOwnerMiddleware(t *testing.T) {
	config.SetRuntime(&config.RuntimeConfig{AuthSecrets: []string{"primary"}})

	var seenOwner string
	h := RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenOwner = OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No header.
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no header: %d", w.Code)
	}

	// Valid token injects owner.
	tok := sign(t, "primary", jwt.MapClaims{"sub": "did:privy:abc", "exp": time.Now().Add(time.Hour).Unix()})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: %d", w.Code)
	}
	if seenOwner != "did:privy:abc" {
		t.Fatalf("owner = %q", seenOwner)
	}
}
