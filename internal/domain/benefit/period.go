package benefit

import "time"

// MonthWindow returns the half-open bounds [from, to) of the calendar month
// containing at, in at's location: from is the first instant of the month,
// to is the first instant of the next month and is excluded. Callers must
// compare with used_at >= from AND used_at < to so the bounds survive any
// timestamp precision truncation in the store. The billing period is
// evaluated at query time; there is no persisted rollover.
func MonthWindow(at time.Time) (from, to time.Time) {
	year, month, _ := at.Date()
	from = time.Date(year, month, 1, 0, 0, 0, 0, at.Location())
	to = from.AddDate(0, 1, 0)
	return from, to
}
