package util

import (
	"database/sql"
	"time"
)

// StringToNullString maps the domain's empty-string zero value to SQL NULL.
func StringToNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// TimeToNullTime maps the zero time to SQL NULL.
func TimeToNullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
