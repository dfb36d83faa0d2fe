package usecase

import (
	"testing"
	"time"

	"github.com/producelens/backend/internal/domain"
)

func TestSeasonFor(t *testing.T) {
	want := map[time.Month]string{
		time.January:   domain.SeasonWinter,
		time.February:  domain.SeasonWinter,
		time.March:     domain.SeasonSpring,
		time.April:     domain.SeasonSpring,
		time.May:       domain.SeasonSpring,
		time.June:      domain.SeasonSummer,
		time.July:      domain.SeasonSummer,
		time.August:    domain.SeasonSummer,
		time.September: domain.SeasonAutumn,
		time.October:   domain.SeasonAutumn,
		time.November:  domain.SeasonAutumn,
		time.December:  domain.SeasonWinter,
	}

	for month, season := range want {
		t.Run(month.String(), func(t *testing.T) {
			got := SeasonFor(time.Date(2024, month, 15, 12, 0, 0, 0, time.UTC))
			if got != season {
				t.Errorf("SeasonFor(%s) = %q, want %q", month, got, season)
			}
		})
	}
}
