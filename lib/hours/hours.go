// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package hours parses the opening-hours grammar used in business
// profile records and answers "is the business open at this local
// time".
//
// The grammar is a comma-separated list of rules. Each rule is a
// weekday or contiguous weekday range followed by an opening interval:
//
//	Mon-Fri 09:00-17:00, Sat 10:00-14:00
//	Tue-Sun 17:00-23:30
//	Fri 18:00-02:00
//
// A close time at or before the open time rolls past midnight: the
// last example is open Friday evening into Saturday morning. Weekday
// ranges may wrap the week end (Sat-Mon).
package hours

import (
	"fmt"
	"strings"
	"time"
)

// minutesPerDay is the number of minutes in a civil day.
const minutesPerDay = 24 * 60

// Interval is one opening interval in minutes from local midnight.
// Close is exclusive and may exceed a day's worth of minutes when the
// interval rolls past midnight.
type Interval struct {
	Open  int
	Close int
}

// Schedule holds the parsed opening intervals per weekday. The zero
// value is a schedule that is never open.
type Schedule struct {
	intervals [7][]Interval
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// Parse parses the opening-hours grammar. Errors name the offending
// token so a malformed profile is diagnosable from the log line alone.
func Parse(text string) (*Schedule, error) {
	schedule := &Schedule{}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("hours: empty opening-hours specification")
	}

	for _, rule := range strings.Split(trimmed, ",") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			return nil, fmt.Errorf("hours: empty rule in %q", text)
		}
		fields := strings.Fields(rule)
		if len(fields) != 2 {
			return nil, fmt.Errorf("hours: rule %q must be 'days HH:MM-HH:MM'", rule)
		}

		first, last, err := parseDayRange(fields[0])
		if err != nil {
			return nil, err
		}
		interval, err := parseInterval(fields[1])
		if err != nil {
			return nil, err
		}

		// Walk the weekday range, wrapping the week end if needed.
		for day := first; ; day = (day + 1) % 7 {
			schedule.intervals[day] = append(schedule.intervals[day], interval)
			if day == last {
				break
			}
		}
	}
	return schedule, nil
}

// OpenAt reports whether the schedule is open at the given weekday and
// minute from local midnight. Intervals that roll past midnight count
// for the early minutes of the following day.
func (s *Schedule) OpenAt(day time.Weekday, minute int) bool {
	for _, interval := range s.intervals[day] {
		if minute >= interval.Open && minute < interval.Close {
			return true
		}
	}
	// An overnight interval that started the previous day may still be
	// open: check the previous day's intervals against minute+1440.
	previous := (day + 6) % 7
	for _, interval := range s.intervals[previous] {
		if interval.Close > minutesPerDay && minute+minutesPerDay < interval.Close {
			return true
		}
	}
	return false
}

// OpenOn reports whether the schedule has any opening interval that
// covers time t interpreted in its own location.
func (s *Schedule) OpenOn(t time.Time) bool {
	return s.OpenAt(t.Weekday(), t.Hour()*60+t.Minute())
}

// Intervals returns the opening intervals declared for the given
// weekday (not counting overnight spillover from the previous day).
func (s *Schedule) Intervals(day time.Weekday) []Interval {
	return s.intervals[day]
}

func parseDayRange(token string) (first, last time.Weekday, err error) {
	parts := strings.SplitN(token, "-", 2)
	first, err = parseDay(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 1 {
		return first, first, nil
	}
	last, err = parseDay(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return first, last, nil
}

func parseDay(token string) (time.Weekday, error) {
	day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return 0, fmt.Errorf("hours: unknown weekday %q", token)
	}
	return day, nil
}

func parseInterval(token string) (Interval, error) {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("hours: time range %q must be HH:MM-HH:MM", token)
	}
	open, err := parseClockTime(parts[0])
	if err != nil {
		return Interval{}, err
	}
	closeTime, err := parseClockTime(parts[1])
	if err != nil {
		return Interval{}, err
	}
	if closeTime <= open {
		// Close at or before open means the interval rolls past
		// midnight (18:00-02:00). A zero-length interval cannot be
		// expressed; identical times mean a full 24 hours.
		closeTime += minutesPerDay
	}
	return Interval{Open: open, Close: closeTime}, nil
}

func parseClockTime(token string) (int, error) {
	token = strings.TrimSpace(token)
	parsed, err := time.Parse("15:04", token)
	if err != nil {
		return 0, fmt.Errorf("hours: invalid time %q (want HH:MM)", token)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
