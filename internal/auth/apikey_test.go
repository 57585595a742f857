package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestCallerFromHeader(t *testing.T) {
	if _, err := CallerFromHeader(""); !errors.Is(err, ErrMissingCaller) {
		t.Fatalf("expected missing caller, got %v", err)
	}
	if _, err := CallerFromHeader("   "); !errors.Is(err, ErrMissingCaller) {
		t.Fatalf("expected missing caller, got %v", err)
	}
	if _, err := CallerFromHeader("\xff\xfe"); !errors.Is(err, ErrInvalidCaller) {
		t.Fatalf("expected invalid caller, got %v", err)
	}
	if id, err := CallerFromHeader(" wallet-1 "); err != nil || id != "wallet-1" {
		t.Fatalf("expected wallet-1, got %q err %v", id, err)
	}
}

func TestCallerFromRequest_HeaderNameCaseInsensitive(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/is-admin", nil)
	req.Header["X-Api-Key"] = []string{"wallet-1"}

	id, err := CallerFromRequest(req)
	if err != nil || id != "wallet-1" {
		t.Fatalf("expected wallet-1, got %q err %v", id, err)
	}

	lower := httptest.NewRequest("GET", "/api/v1/is-admin", nil)
	lower.Header.Set("x-api-key", "wallet-2")
	if got := CallerOrAnonymous(lower); got != "wallet-2" {
		t.Fatalf("expected wallet-2, got %q", got)
	}
}

func TestCallerOrAnonymous_Missing(t *testing.T) {
	if got := CallerOrAnonymous(nil); got != "" {
		t.Fatalf("expected anonymous caller, got %q", got)
	}
	req := httptest.NewRequest("GET", "/api/v1/events", nil)
	if got := CallerOrAnonymous(req); got != "" {
		t.Fatalf("expected anonymous caller, got %q", got)
	}
}
