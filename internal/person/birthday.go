package person

import "time"

// DaysToBirthday returns the number of whole days from now until the next
// occurrence of the birth month/day. A February 29 birthday falls on March 1
// in non-leap years. The result is always in [0, 365].
func DaysToBirthday(dateOfBirth, now time.Time) int {
	today := truncateToDate(now)

	next := birthdayInYear(dateOfBirth, today.Year())
	if next.Before(today) {
		next = birthdayInYear(dateOfBirth, today.Year()+1)
	}

	return int(next.Sub(today).Hours() / 24)
}

// birthdayInYear places the birth month/day into the target year, shifting
// February 29 to March 1 when that year has no leap day.
func birthdayInYear(dateOfBirth time.Time, year int) time.Time {
	month, day := dateOfBirth.Month(), dateOfBirth.Day()
	if month == time.February && day == 29 && !isLeapYear(year) {
		month, day = time.March, 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func truncateToDate(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
