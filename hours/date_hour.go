package hours

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	hourLayout = "2006-01-02 15:04"
)

// LoadLocation resolves a timezone name, an empty name means UTC.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", timezone, err)
	}
	return loc, nil
}

// DateHour is a wall clock hour in the market timezone.
type DateHour struct {
	Date string
	Hour uint8
}

// String renders "yyyy-mm-dd HH:mm".
func (dh DateHour) String() string {
	return fmt.Sprintf("%s %s", dh.Date, dh.TimeOfDay())
}

func (dh DateHour) TimeOfDay() string {
	return fmt.Sprintf("%02d:00", dh.Hour)
}

// In returns the start of the hour as an instant in loc.
func (dh DateHour) In(loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, dh.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dh.Date, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), int(dh.Hour), 0, 0, 0, loc), nil
}

func (dh DateHour) Add(hours int) DateHour {
	t, err := time.ParseInLocation(hourLayout, dh.String(), time.UTC)
	if err != nil {
		return dh
	}

	t = t.Add(time.Duration(hours) * time.Hour)
	return DateHour{
		Date: t.Format(DateLayout),
		Hour: uint8(t.Hour()),
	}
}

func (dh DateHour) Sub(hours int) DateHour {
	return dh.Add(-hours)
}

func (dh DateHour) Compare(other DateHour) int {
	if dh == other {
		return 0
	}
	if dh.Date < other.Date {
		return -1
	}
	if dh.Date > other.Date {
		return 1
	}
	if dh.Hour < other.Hour {
		return -1
	}
	return 1
}

func (dh DateHour) IsZero() bool {
	return dh.Date == "" && dh.Hour == 0
}

// FromTime truncates t to its hour, using the location t carries.
func FromTime(t time.Time) DateHour {
	if t.IsZero() {
		return DateHour{}
	}
	return DateHour{
		Date: t.Format(DateLayout),
		Hour: uint8(t.Hour()),
	}
}

// Parse accepts "yyyy-mm-dd HH:mm", minutes must be zero.
func Parse(str string) (DateHour, error) {
	date, clock, ok := strings.Cut(str, " ")
	if !ok {
		return DateHour{}, fmt.Errorf("invalid date hour %q", str)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return DateHour{}, fmt.Errorf("invalid date hour %q: %w", str, err)
	}
	hour, err := ParseClockHour(clock)
	if err != nil {
		return DateHour{}, fmt.Errorf("invalid date hour %q: %w", str, err)
	}
	return DateHour{Date: date, Hour: hour}, nil
}

// ParseClockHour reads the hour out of "HH:mm".
func ParseClockHour(clock string) (uint8, error) {
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok || len(hh) != 2 || mm != "00" {
		return 0, fmt.Errorf("invalid time of day %q", clock)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid time of day %q", clock)
	}
	return uint8(h), nil
}

// StartOfDay returns local midnight of the day t falls on in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDateOrTime accepts RFC3339 or a plain date, the latter interpreted in loc.
func ParseDateOrTime(str string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(DateLayout, str, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 or %s, got %q", DateLayout, str)
	}
	return t, nil
}
