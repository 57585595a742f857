package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PredictChain/server/internal/domain/events"
)

// ParsePage reads the optional limit and offset query parameters. A value
// that is not a non-negative integer is treated as absent, and limit=0 means
// no limit.
func ParsePage(values url.Values) events.Page {
	page := events.Page{}
	if limit, ok := parseCount(values.Get("limit")); ok && limit > 0 {
		page.Limit = &limit
	}
	if offset, ok := parseCount(values.Get("offset")); ok {
		page.Offset = &offset
	}
	return page
}

func parseCount(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}
