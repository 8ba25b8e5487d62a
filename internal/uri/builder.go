package uri

import (
	"net/url"
	"strings"
	"time"
)

// BuildPostURL substitutes a post's date and slug into format.
func BuildPostURL(format string, date time.Time, slug string) string {
	r := strings.NewReplacer(
		"%year%", date.Format("2006"),
		"%month%", date.Format("01"),
		"%day%", date.Format("02"),
		"%slug%", slug,
	)
	return strings.Trim(r.Replace(format), "/")
}

func BuildTagURL(format, tag string) string {
	return strings.Trim(strings.ReplaceAll(format, "%tag%", escapeKey(tag)), "/")
}

func BuildCategoryURL(format, category string) string {
	return strings.Trim(strings.ReplaceAll(format, "%category%", escapeKey(category)), "/")
}

// escapeKey also escapes dots so a key never looks like a file extension.
func escapeKey(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), ".", "%2E")
}
