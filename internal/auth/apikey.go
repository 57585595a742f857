package auth

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"
)

// CallerHeader carries the caller identifier (a wallet address). The value
// is trusted as asserted; nothing proves the caller owns the wallet.
const CallerHeader = "X-API-Key"

var (
	ErrMissingCaller = errors.New("missing caller identifier")
	ErrInvalidCaller = errors.New("invalid caller identifier")
)

// CallerFromRequest returns the caller identifier from the request headers.
func CallerFromRequest(r *http.Request) (string, error) {
	if r == nil {
		return "", ErrMissingCaller
	}
	return CallerFromHeader(r.Header.Get(CallerHeader))
}

func CallerFromHeader(value string) (string, error) {
	id := strings.TrimSpace(value)
	if id == "" {
		return "", ErrMissingCaller
	}
	if !utf8.ValidString(id) {
		return "", ErrInvalidCaller
	}
	return id, nil
}

// CallerOrAnonymous is CallerFromRequest for operations where an absent
// header simply means "not an admin".
func CallerOrAnonymous(r *http.Request) string {
	id, err := CallerFromRequest(r)
	if err != nil {
		return ""
	}
	return id
}
