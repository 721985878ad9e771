package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DateLayout to format daty kalendarzowej używany w API i w bazie
const DateLayout = "2006-01-02"

// Date reprezentuje datę kalendarzową (bez godziny), serializowaną jako "YYYY-MM-DD"
type Date struct {
	time.Time
}

// NewDate obcina godzinę i zwraca datę w UTC
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Today zwraca dzisiejszą datę
func Today() Date {
	return NewDate(time.Now())
}

// ParseDate parsuje datę w formacie "YYYY-MM-DD"
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON zapisuje datę jako "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON czyta datę w formacie "YYYY-MM-DD"
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value zapisuje datę w bazie jako tekst "YYYY-MM-DD"
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan czyta datę z kolumny DATE (time.Time) albo TEXT
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	// sterowniki SQLite potrafią zwrócić pełny znacznik czasu
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
