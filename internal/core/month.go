package core

import (
	"fmt"
	"time"
)

// Month is a calendar month in UTC, parsed from the "YYYYMM" wire format.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth accepts exactly six ASCII digits, YYYYMM, with a month between 01 and 12.
func ParseMonth(s string) (Month, error) {
	if len(s) != 6 {
		return Month{}, fmt.Errorf("%w: %q: expected YYYYMM", ErrInvalidMonth, s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Month{}, fmt.Errorf("%w: %q: expected YYYYMM", ErrInvalidMonth, s)
		}
	}
	year := int(s[0]-'0')*1000 + int(s[1]-'0')*100 + int(s[2]-'0')*10 + int(s[3]-'0')
	month := int(s[4]-'0')*10 + int(s[5]-'0')
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("%w: %q: month out of range", ErrInvalidMonth, s)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// MonthOf returns the UTC calendar month containing t.
func MonthOf(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

// Bounds returns the first instant (00:00:00) and the last second (23:59:59) of the month.
// Both bounds are inclusive.
func (m Month) Bounds() (time.Time, time.Time) {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return start, end
}

// Contains reports whether t falls inside the inclusive bounds.
func (m Month) Contains(t time.Time) bool {
	start, end := m.Bounds()
	t = t.UTC()
	return !t.Before(start) && !t.After(end)
}

func (m Month) Previous() Month {
	start, _ := m.Bounds()
	return MonthOf(start.AddDate(0, -1, 0))
}

// Key is the "YYYYMM" form.
func (m Month) Key() string {
	return fmt.Sprintf("%04d%02d", m.Year, int(m.Month))
}

// String is the "YYYY-MM" form used in notification payloads and report titles.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
