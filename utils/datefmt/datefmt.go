// Package datefmt formats calendar dates the way they are written in
// Indonesian administrative letters.
package datefmt

import (
	"time"

	"github.com/goodsign/monday"
)

// DefaultLocale is used when a configured locale is empty or unknown.
const DefaultLocale = monday.LocaleIdID

const (
	longLayout    = "02 January 2006"
	weekdayLayout = "Monday"
)

// ParseLocale maps a locale name such as "id_ID" to a monday locale.
func ParseLocale(name string) monday.Locale {
	for _, l := range monday.ListLocales() {
		if string(l) == name {
			return l
		}
	}
	return DefaultLocale
}

// LongDate renders t as "dd MonthName yyyy", e.g. "17 Mei 1990". A nil date
// yields the empty string.
func LongDate(t *time.Time, locale monday.Locale) string {
	if t == nil {
		return ""
	}
	return monday.Format(*t, longLayout, locale)
}

// WeekdayName renders the weekday of t, e.g. "Kamis". A nil date yields the
// empty string.
func WeekdayName(t *time.Time, locale monday.Locale) string {
	if t == nil {
		return ""
	}
	return monday.Format(*t, weekdayLayout, locale)
}
