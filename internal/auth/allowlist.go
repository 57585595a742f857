package auth

import (
	"crypto/subtle"
	"strings"
)

// Allowlist is the fixed set of caller identifiers granted admin privilege.
// It is built once at startup and never mutated, so it is safe for
// concurrent use without locking.
type Allowlist struct {
	ids []string
}

// NewAllowlist builds an allowlist from configured identifiers. Entries are
// trimmed; blank and duplicate entries are dropped.
func NewAllowlist(ids []string) *Allowlist {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return &Allowlist{ids: out}
}

// IsAdmin reports whether id exactly matches an allowlisted identifier.
// Matching is case-sensitive. The empty identifier is never an admin.
func (a *Allowlist) IsAdmin(id string) bool {
	if a == nil || id == "" {
		return false
	}
	match := 0
	for _, candidate := range a.ids {
		match |= subtle.ConstantTimeCompare([]byte(candidate), []byte(id))
	}
	return match == 1
}

func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.ids)
}
