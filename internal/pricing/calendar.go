package pricing

import "time"

// TradingDaysPerYear is the number of business days used to annualise time to expiry.
const TradingDaysPerYear = 252

// DateLayout is the civil date format used on every input and output.
const DateLayout = "2006-01-02"

// Date truncates t to midnight UTC of its calendar day. All contract and
// simulation dates are compared as civil dates.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Date(t), nil
}

// BusinessDaysBetween counts the weekdays (Mon-Fri) in the half-open range
// [from, to). When to is before from the count of [to, from) is returned negated.
// No holiday calendar is applied.
func BusinessDaysBetween(from, to time.Time) int {
	from, to = Date(from), Date(to)
	sign := 1
	if to.Before(from) {
		from, to = to, from
		sign = -1
	}

	days := int(to.Sub(from).Hours() / 24)
	weeks := days / 7
	count := weeks * 5

	// remaining partial week
	wd := from.Weekday()
	for i := 0; i < days%7; i++ {
		if wd != time.Saturday && wd != time.Sunday {
			count++
		}
		wd = (wd + 1) % 7
	}
	return sign * count
}

// YearFraction converts a business-day count into trading years.
func YearFraction(businessDays int) float64 {
	return float64(businessDays) / TradingDaysPerYear
}
