package usecase

import (
	"time"

	"github.com/producelens/backend/internal/domain"
)

// SeasonFor maps a calendar month to its season bucket.
func SeasonFor(t time.Time) string {
	switch t.Month() {
	case time.March, time.April, time.May:
		return domain.SeasonSpring
	case time.June, time.July, time.August:
		return domain.SeasonSummer
	case time.September, time.October, time.November:
		return domain.SeasonAutumn
	default:
		return domain.SeasonWinter
	}
}
