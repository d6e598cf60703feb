package store

import (
	"testing"
	"time"
)

func TestEndExclusiveCoversWholeFinalDay(t *testing.T) {
	periodEnd := time.Date(2026, time.August, 16, 0, 0, 0, 0, time.UTC)
	bound := endExclusive(periodEnd)

	lastMoment := time.Date(2026, time.August, 16, 23, 59, 59, 999999000, time.UTC)
	if !lastMoment.Before(bound) {
		t.Fatalf("conversion at %s must fall inside the period bound %s", lastMoment, bound)
	}

	nextDay := time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC)
	if nextDay.Before(bound) {
		t.Fatalf("conversion at %s must fall outside the period bound %s", nextDay, bound)
	}
}
