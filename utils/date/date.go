package date

import (
	"database/sql/driver"
	"time"

	"cloud.google.com/go/civil"
)

// Date is a calendar day without a time or location, used for ex-dates and
// lot purchase dates where timezones must not leak into day arithmetic.
type Date struct {
	civil.Date
}

func DateOf(t time.Time) Date {
	var d Date
	d.Date.Year, d.Date.Month, d.Date.Day = t.Date()
	return d
}

func Today() Date {
	return DateOf(time.Now())
}

func New(year int, month time.Month, day int) Date {
	return Date{Date: civil.Date{Year: year, Month: month, Day: day}}
}

func Parse(layout string, value string) (Date, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func ParseDate(s string) (Date, error) {
	if d, err := civil.ParseDate(s); err != nil {
		return Date{}, err
	} else {
		return Date{Date: d}, nil
	}
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Date: d.Date.AddDays(n)}
}

// DaysSince returns the number of days d is after other.
func (d Date) DaysSince(other Date) int {
	return d.Date.DaysSince(other.Date)
}

func (d Date) Before(other Date) bool {
	return d.Date.Before(other.Date)
}

func (d Date) After(other Date) bool {
	return d.Date.After(other.Date)
}

func (d Date) Value() (driver.Value, error) {
	return d.Date.String(), nil
}

func (d *Date) Scan(value interface{}) error {
	if value == nil {
		d.Date = civil.Date{}
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			d.Date = civil.Date{}
			return nil
		}
		d.Date = civil.DateOf(v)
	case string:
		parsed, err := civil.ParseDate(v)
		if err != nil {
			return err
		}
		d.Date = parsed
	case []byte:
		parsed, err := civil.ParseDate(string(v))
		if err != nil {
			return err
		}
		d.Date = parsed
	}
	return nil
}
