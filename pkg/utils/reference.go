package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateBookingReference returns a human-readable booking code of the
// form BKG-YYYYMMDD-<8 hex chars>. The code is display-only and never
// used for lookup, so collisions are harmless.
func GenerateBookingReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("BKG-%s-%s", time.Now().Format("20060102"), suffix)
}
