package render

import (
	"html"
	"strings"
	"time"

	"github.com/kitzberger/cli-browser/internal/database"
)

// TimestampLayout is the display format of unix timestamp columns.
const TimestampLayout = "2006-01-02 15:04"

// FormatTimestamp renders a unix timestamp; zero, empty and NULL become "".
func FormatTimestamp(value interface{}, loc *time.Location) string {
	if value == nil {
		return ""
	}
	seconds := database.ToInt64(value)
	if seconds == 0 {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(seconds, 0).In(loc).Format(TimestampLayout)
}

// UnescapeMarkup decodes entities of values extracted from nested XML fields
// and trims the surrounding whitespace.
func UnescapeMarkup(value interface{}) string {
	return strings.TrimSpace(html.UnescapeString(database.FormatValue(value)))
}
