package format

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the absolute date format shown to users.
const DateLayout = "2006-01-02"

// Date formats t as YYYY-MM-DD in t's location.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// RelativeTime describes how long ago t was relative to now. Anything a
// week or older falls back to the absolute date.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	mins := int(math.Floor(diff.Minutes()))
	hours := int(math.Floor(diff.Hours()))
	days := int(math.Floor(diff.Hours() / 24))

	switch {
	case mins < 1:
		return "剛剛"
	case mins < 60:
		return fmt.Sprintf("%d 分鐘前", mins)
	case hours < 24:
		return fmt.Sprintf("%d 小時前", hours)
	case days < 7:
		return fmt.Sprintf("%d 天前", days)
	}
	return Date(t)
}

// CalculateAge returns the age on now of someone born on year/month/day.
func CalculateAge(year, month, day int, now time.Time) int {
	age := now.Year() - year
	if int(now.Month()) < month || (int(now.Month()) == month && now.Day() < day) {
		age--
	}
	return age
}

// Today returns midnight at the start of now's day.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// WeekStart returns t moved back to the preceding Sunday, keeping the time
// of day.
func WeekStart(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// MonthStart returns midnight on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
