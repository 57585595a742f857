package handlers

import (
	"net/http"

	"github.com/PredictChain/server/internal/auth"
	"github.com/PredictChain/server/internal/domain/events"
)

// IsAdmin reports whether the caller in the X-API-Key header is on the
// allowlist. A missing header is simply not an admin.
func IsAdmin(admins events.AdminChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := auth.CallerOrAnonymous(r)
		result := admins != nil && admins.IsAdmin(caller)
		writeJSON(w, http.StatusOK, map[string]bool{"result": result})
	}
}
