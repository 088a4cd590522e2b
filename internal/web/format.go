package web

import (
	"net/url"
	"time"
)

const (
	frDateLayout     = "02/01/2006"
	frDateTimeLayout = "02/01/2006 15:04:05"
	placeholderDash  = "–"
)

// parseCreatedAt reads the backend timestamp. Date-only values are UTC
// midnight, zone-less date-times are wall clock in loc.
func parseCreatedAt(raw string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// FormatDate renders raw as a French short date, or a dash when empty.
// Unparseable values are shown as received.
func FormatDate(raw string, loc *time.Location) string {
	return format(raw, loc, frDateLayout)
}

// FormatDateTime renders raw as a French date and time.
func FormatDateTime(raw string, loc *time.Location) string {
	return format(raw, loc, frDateTimeLayout)
}

func format(raw string, loc *time.Location, layout string) string {
	if raw == "" {
		return placeholderDash
	}
	t, ok := parseCreatedAt(raw, loc)
	if !ok {
		return raw
	}
	return t.In(loc).Format(layout)
}

// SiteActionURL builds the link to a per-row action, carrying the active filter.
func SiteActionURL(safeName, action, query string) string {
	u := "/sites/" + url.PathEscape(safeName) + "/" + action
	if query != "" {
		u += "?q=" + url.QueryEscape(query)
	}
	return u
}

// ListURL is the filtered list location.
func ListURL(query string) string {
	if query == "" {
		return "/sites"
	}
	return "/sites?q=" + url.QueryEscape(query)
}
