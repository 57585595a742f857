package middleware

import (
	"net/http"

	"github.com/PredictChain/server/internal/api/problem"
)

func writeProblem(w http.ResponseWriter, r *http.Request, status int, title string) {
	typ := problem.TypeServerError
	switch status {
	case http.StatusTooManyRequests:
		typ = problem.TypeRateLimited
	case http.StatusRequestEntityTooLarge:
		typ = problem.TypeTooLarge
	}
	problem.WriteDetails(w, problem.Details{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   http.StatusText(status),
		Instance: r.URL.Path,
	})
}
