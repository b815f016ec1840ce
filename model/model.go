package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a suffix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New() // Generate a new UUID.
	uuidStr := id.String()
	idWithSuffix := fmt.Sprintf("%s_%s", module, uuidStr) // Append the module as a suffix to the UUID.
	return idWithSuffix
}

// HashContent returns the hex encoded SHA-256 digest of an uploaded document.
// It is used as a cache key for extracted statement text.
func HashContent(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// DefaultTolerance is the amount difference under which two amounts are treated as equal.
var DefaultTolerance = decimal.RequireFromString("0.01")

// WithinTolerance reports whether |a - b| <= tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// Today returns the current calendar date in UTC.
func Today() civil.Date {
	return civil.DateOf(time.Now().UTC())
}

// NormalizeCheckNumber strips decoration from a check number so that
// "#001234", "1234" and " 1234 " compare equal.
func NormalizeCheckNumber(number string) string {
	n := strings.TrimSpace(number)
	n = strings.TrimPrefix(n, "#")
	n = strings.TrimSpace(n)
	trimmed := strings.TrimLeft(n, "0")
	if trimmed == "" && n != "" {
		return "0"
	}
	return strings.ToUpper(trimmed)
}
