package drawing

import (
	"encoding/json"
	"fmt"
	"time"
)

const monthLayout = "2006-01"

// Month is a calendar month without a day component.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth builds a Month from a year and a month number.
func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf truncates t to its calendar month.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses the "YYYY-MM" form.
func ParseMonth(value string) (Month, error) {
	t, err := time.Parse(monthLayout, value)
	if err != nil {
		return Month{}, fmt.Errorf("invalid target month %q: %w", value, err)
	}
	return MonthOf(t), nil
}

// Valid reports whether the month can be stored.
func (m Month) Valid() bool {
	return m.Year >= 1 && m.Year <= 9999 && m.Month >= time.January && m.Month <= time.December
}

// IsZero reports whether the month was never set.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// FirstDay returns midnight UTC of the first day of the month.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Before reports whether m is earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// String renders the month as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
