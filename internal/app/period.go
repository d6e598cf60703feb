/**
 * @description
 * Settlement period arithmetic. A settlement period is a Monday-Sunday
 * calendar week; each run sweeps the week before the most recently
 * completed one, leaving a full week for conversions to clear before
 * their commission is paid.
 */
package app

import "time"

// SettlementPeriod returns the Monday start and Sunday end of the period to
// sweep, given the current time. Both bounds are midnight UTC dates.
//
// Monday counts as day 0 and Sunday as day 6, so the roll-back to the start
// of the current week is correct on every weekday including Sunday.
func SettlementPeriod(now time.Time) (periodStart, periodEnd time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	daysSinceMonday := (int(today.Weekday()) + 6) % 7
	currentMonday := today.AddDate(0, 0, -daysSinceMonday)

	// Skip the just-completed week; settle the one before it.
	periodStart = currentMonday.AddDate(0, 0, -14)
	periodEnd = periodStart.AddDate(0, 0, 6)
	return periodStart, periodEnd
}
