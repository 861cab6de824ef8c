package format

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidMonth = errors.New("invalid month index")
	ErrInvalidDay   = errors.New("invalid day of month")
)

// Indonesian month names indexed from zero.
var indonesianMonths = [12]string{
	"Januari",
	"Februari",
	"Maret",
	"April",
	"Mei",
	"Juni",
	"Juli",
	"Agustus",
	"September",
	"Oktober",
	"November",
	"Desember",
}

// MonthName returns the Indonesian name for a zero-based month index.
func MonthName(index int) (string, error) {
	if index < 0 || index >= len(indonesianMonths) {
		return "", fmt.Errorf("%w: %d", ErrInvalidMonth, index)
	}
	return indonesianMonths[index], nil
}

// FormatDate renders t as "DD MonthName YYYY" in t's own location,
// e.g. "05 Januari 2024".
func FormatDate(t time.Time) string {
	return render(t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// FormatDateParts is FormatDate for loose parts with a zero-based month.
// Out-of-range months and days that do not exist in that month are
// rejected rather than normalised.
func FormatDateParts(year, monthIndex, day int) (string, error) {
	name, err := MonthName(monthIndex)
	if err != nil {
		return "", err
	}
	if day < 1 || day > daysIn(year, monthIndex) {
		return "", fmt.Errorf("%w: %d %s %d", ErrInvalidDay, day, name, year)
	}
	return render(day, name, year), nil
}

func daysIn(year, monthIndex int) int {
	// day 0 of the following month is the last day of this one
	return time.Date(year, time.Month(monthIndex+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

func render(day int, month string, year int) string {
	return fmt.Sprintf("%02d %s %d", day, month, year)
}
