// Package util holds small formatting helpers for chat and CLI output.
package util

import (
	"strings"
	"time"
)

// DefaultLayout is used by FormatDate.
const DefaultLayout = "YYYY-MM-DD hh:mm"

// Longer placeholders come first so YYYY is never read as YY twice.
var tplReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"hh", "15",
	"mm", "04",
	"ss", "05",
)

// FormatDateTpl formats t using YYYY, YY, MM, DD, hh, mm and ss placeholders.
// A zero time yields "".
//
//	FormatDateTpl(t, "DD/MM/YYYY") // "10/11/2023"
func FormatDateTpl(t time.Time, tpl string) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(tplReplacer.Replace(tpl))
}

func FormatDate(t time.Time) string {
	return FormatDateTpl(t, DefaultLayout)
}

// FormatSeconds renders a second count as a duration such as "1m30s".
func FormatSeconds(s int64) string {
	if s <= 0 {
		return "0s"
	}
	return (time.Duration(s) * time.Second).String()
}
