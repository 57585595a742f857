package ids

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidRegex = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)

	ErrInvalidULID = errors.New("invalid ULID")
)

// NewULID generates a new ULID string. Values minted within the same process
// sort in creation order, which the document stores rely on for insertion
// ordering.
func NewULID() string {
	return ulid.Make().String()
}

// ULIDAt builds a deterministic ULID for the given time and entropy seed.
// Used for fixture data that must keep stable identifiers across resets.
func ULIDAt(t time.Time, seed uint64) string {
	var entropy [10]byte
	for i := 0; i < 8; i++ {
		entropy[9-i] = byte(seed >> (8 * i))
	}
	var id ulid.ULID
	_ = id.SetTime(ulid.Timestamp(t))
	_ = id.SetEntropy(entropy[:])
	return id.String()
}

// IsULID returns true when value is a valid ULID (case-insensitive Crockford Base32).
func IsULID(value string) bool {
	return ulidRegex.MatchString(strings.TrimSpace(value))
}

// ValidateULID validates a ULID string.
func ValidateULID(value string) error {
	if !IsULID(value) {
		return ErrInvalidULID
	}
	return nil
}

// TimeOf returns the timestamp encoded in a ULID.
func TimeOf(value string) (time.Time, error) {
	id, err := ulid.ParseStrict(strings.ToUpper(strings.TrimSpace(value)))
	if err != nil {
		return time.Time{}, ErrInvalidULID
	}
	return ulid.Time(id.Time()), nil
}
