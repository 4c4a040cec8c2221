package core

import (
	"regexp"
	"strings"
	"time"
)

// PeriodLayout is the canonical calendar-month form, e.g. "2025-03".
const PeriodLayout = "2006-01"

var (
	yearMonthRe    = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearMonthDayRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Layouts tried when a period string is neither YYYY-MM nor YYYY-MM-DD.
// Operator-entered free text occasionally arrives in these shapes.
var periodParseLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"2006-1-2",
	"2006-1",
	"January 2, 2006",
	"Jan 2, 2006",
}

// NormalizePeriod coerces free-text period input into a YYYY-MM bucket,
// falling back to the current month when the input is empty or unparseable.
// Idempotent: normalizing an already-normalized value returns it unchanged.
func NormalizePeriod(p string) string {
	return NormalizePeriodAt(time.Now(), p)
}

// NormalizePeriodAt is NormalizePeriod with an injected reference time for
// the empty/unparseable fallback.
func NormalizePeriodAt(now time.Time, p string) string {
	s := strings.TrimSpace(p)
	if s == "" {
		return now.Format(PeriodLayout)
	}
	if yearMonthRe.MatchString(s) {
		return s
	}
	if yearMonthDayRe.MatchString(s) {
		return s[:7]
	}
	for _, layout := range periodParseLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format(PeriodLayout)
		}
	}
	return now.Format(PeriodLayout)
}

// NextAvailableMonth walks forward from the current month and returns the
// first YYYY-MM not present in existing. The search is bounded to 60 months;
// past that it degrades to returning the current month, which may duplicate
// an existing entry. Callers must tolerate that documented edge.
func NextAvailableMonth(existing map[string]bool) string {
	return NextAvailableMonthFrom(time.Now(), existing)
}

// NextAvailableMonthFrom is NextAvailableMonth starting at from's month.
func NextAvailableMonthFrom(from time.Time, existing map[string]bool) string {
	d := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		cand := d.Format(PeriodLayout)
		if !existing[cand] {
			return cand
		}
		d = d.AddDate(0, 1, 0)
	}
	return from.Format(PeriodLayout)
}
