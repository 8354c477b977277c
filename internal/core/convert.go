package core

// convert.go holds the scalar coercions applied to raw cell values and the
// conversions to pgtype values used by the store.
//
// Coercions are lenient: a value that cannot be understood falls back to a
// default rather than failing the row. Only the tax id and the phone produce
// validation errors, and those are raised by the transformer.

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DefaultBirthDate is stored when a birth date is missing or unparseable.
var DefaultBirthDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// birthDateLayouts are tried in order; the first structural match wins.
var birthDateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
}

// ParseBirthDate parses DD/MM/YYYY, DD-MM-YYYY or YYYY-MM-DD.
// Anything else yields DefaultBirthDate and ok=false.
func ParseBirthDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultBirthDate, false
	}

	// Spreadsheets often carry a time part ("15/03/1985 00:00:00").
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}

	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return DefaultBirthDate, false
}

// Date is a calendar date carried as YYYY-MM-DD on the wire.
type Date struct {
	time.Time
}

// NewDate wraps t as a Date.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON accepts the birth date layouts and RFC 3339 timestamps.
// null and "" decode to the zero Date.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	if t, ok := ParseBirthDate(s); ok {
		*d = Date{Time: t}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	return fmt.Errorf("invalid date %q", s)
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a Date to pgtype.Date.
// Returns invalid for the zero date.
func ToPgDate(d Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: d.Time, Valid: true}
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
