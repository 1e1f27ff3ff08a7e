package scope

import (
	"time"

	"github.com/gateward/gateward/internal/domain/token"
)

// Business hours are 09:00-17:00 UTC.
const (
	businessHoursStart = 9
	businessHoursEnd   = 17
)

// TimeAllowed reports whether now falls inside the credential's time
// restrictions. All checks use UTC.
func TimeAllowed(tr token.TimeRestriction, now time.Time) bool {
	if !tr.Restricted() {
		return true
	}

	now = now.UTC()

	if tr.BusinessHoursOnly {
		hour := now.Hour()
		if hour < businessHoursStart || hour >= businessHoursEnd {
			return false
		}
	}

	if tr.WeekdaysOnly {
		switch now.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}

	return true
}
