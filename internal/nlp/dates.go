package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateParser resolves a free-text date expression to an absolute date.
type DateParser interface {
	ParseDate(expr string, now time.Time) (time.Time, bool)
}

var (
	ordinalRe  = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
	daysAgoRe  = regexp.MustCompile(`^(\d{1,2})\s+days?\s+ago$`)
	pastDayRe  = regexp.MustCompile(`^(?:(last|on)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)$`)
	relativeRe = regexp.MustCompile(`^(last|this)\s+(night|week|weekend|month)$`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Layouts carrying a year.
var datedLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"1/2/06",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// Layouts without a year. The latest such date not after now is assumed.
var undatedLayouts = []string{
	"1/2",
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
}

// NaturalDateParser handles explicit calendar forms and past-leaning relative
// forms itself, and falls back to the when rule set for the rest ("next
// friday", "this friday").
type NaturalDateParser struct {
	w *when.Parser
}

// NewNaturalDateParser builds a parser with the English and common rule sets.
func NewNaturalDateParser() *NaturalDateParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &NaturalDateParser{w: w}
}

// ParseDate returns the calendar date expr refers to, relative to now.
func (p *NaturalDateParser) ParseDate(expr string, now time.Time) (time.Time, bool) {
	s := cleanDateExpr(expr)
	if s == "" {
		return time.Time{}, false
	}

	switch s {
	case "today", "tonight", "this morning", "this afternoon", "this evening":
		return dateOf(now), true
	}
	if m := daysAgoRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return dateOf(now).AddDate(0, 0, -n), true
	}
	if m := pastDayRe.FindStringSubmatch(s); m != nil {
		return pastWeekday(now, weekdays[m[2]], m[1] == "last"), true
	}
	if m := relativeRe.FindStringSubmatch(s); m != nil {
		return relativeDate(now, m[1] == "last", m[2]), true
	}

	loc := now.Location()
	for _, layout := range datedLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	for _, layout := range undatedLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			d := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
			if d.After(now) {
				d = d.AddDate(-1, 0, 0)
			}
			return d, true
		}
	}

	r, err := p.w.Parse(s, now)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	return dateOf(r.Time), true
}

// pastWeekday is the most recent wd on or before now. With strict, today is
// skipped so "last monday" on a Monday is a week ago.
func pastWeekday(now time.Time, wd time.Weekday, strict bool) time.Time {
	back := (int(now.Weekday()) - int(wd) + 7) % 7
	if strict && back == 0 {
		back = 7
	}
	return dateOf(now).AddDate(0, 0, -back)
}

// relativeDate resolves "last/this night|week|weekend|month". Weeks and months
// resolve to the same weekday or day one period back; weekends to their Saturday.
func relativeDate(now time.Time, last bool, unit string) time.Time {
	today := dateOf(now)
	switch unit {
	case "night":
		if last {
			return today.AddDate(0, 0, -1)
		}
		return today
	case "week":
		if last {
			return today.AddDate(0, 0, -7)
		}
		return today
	case "month":
		if last {
			return today.AddDate(0, -1, 0)
		}
		return today
	}
	sat := pastWeekday(now, time.Saturday, false)
	if now.Weekday() != time.Saturday && now.Weekday() != time.Sunday {
		if last {
			return sat
		}
		return sat.AddDate(0, 0, 7)
	}
	if last {
		return sat.AddDate(0, 0, -7)
	}
	return sat
}

func cleanDateExpr(expr string) string {
	s := strings.ToLower(strings.TrimSpace(expr))
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, ".", " ")
	s = strings.ReplaceAll(s, " of ", " ")
	s = strings.ReplaceAll(s, "sept ", "sep ")
	return strings.Join(strings.Fields(s), " ")
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
