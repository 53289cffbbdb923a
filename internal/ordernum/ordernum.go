// Package ordernum generates human-readable order numbers of the form
// ORD-YYMMDD-HHMMSS-XXXXXXXX. Uniqueness is enforced by the orders table; the
// random suffix only makes collisions rare.
package ordernum

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	prefix     = "ORD"
	suffixLen  = 8
	timeLayout = "060102-150405"
)

var pattern = regexp.MustCompile(`^ORD-\d{6}-\d{6}-[0-9A-F]{8}$`)

// Generate returns a new order number for an order placed at now.
func Generate(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:suffixLen]
	return prefix + "-" + now.UTC().Format(timeLayout) + "-" + suffix
}

// Valid reports whether s looks like an order number.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
