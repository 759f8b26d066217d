// Package correlator mints the request identifiers that tie a purchase
// attempt to its later status queries.
package correlator

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// timestampLayout is the prefix the provider expects on request ids; it also
// makes ids sortable by creation time when scanning logs.
const timestampLayout = "20060102150405"

// NewRequestID returns an opaque identifier unique per purchase attempt.
// The id doubles as the outbound request tag and the status-query key, so it
// must stay stable in string form for the lifetime of the purchase.
// Timestamp prefix plus a random uuid suffix gives practical collision
// avoidance without any I/O; this operation cannot fail.
func NewRequestID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return time.Now().Format(timestampLayout) + suffix
}
