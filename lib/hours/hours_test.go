// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package hours

import (
	"testing"
	"time"
)

func TestParseWeekdayRange(t *testing.T) {
	schedule, err := Parse("Mon-Fri 09:00-17:00, Sat 10:00-14:00")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tests := []struct {
		day    time.Weekday
		minute int
		open   bool
	}{
		{time.Monday, 9 * 60, true},
		{time.Monday, 9*60 - 1, false},
		{time.Wednesday, 12 * 60, true},
		{time.Friday, 17 * 60, false}, // close is exclusive
		{time.Saturday, 10 * 60, true},
		{time.Saturday, 14 * 60, false},
		{time.Sunday, 12 * 60, false},
	}
	for _, test := range tests {
		if got := schedule.OpenAt(test.day, test.minute); got != test.open {
			t.Errorf("OpenAt(%v, %d) = %v, want %v", test.day, test.minute, got, test.open)
		}
	}

	weekday := schedule.Intervals(time.Wednesday)
	if len(weekday) != 1 || weekday[0] != (Interval{Open: 9 * 60, Close: 17 * 60}) {
		t.Errorf("Intervals(Wednesday) = %v", weekday)
	}
	if got := schedule.Intervals(time.Sunday); len(got) != 0 {
		t.Errorf("Intervals(Sunday) = %v, want none", got)
	}
}

func TestParseOvernightInterval(t *testing.T) {
	schedule, err := Parse("Fri 18:00-02:00")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !schedule.OpenAt(time.Friday, 23*60) {
		t.Error("closed Friday 23:00, want open")
	}
	if !schedule.OpenAt(time.Saturday, 60) {
		t.Error("closed Saturday 01:00, want open (overnight spillover)")
	}
	if schedule.OpenAt(time.Saturday, 2*60) {
		t.Error("open Saturday 02:00, want closed (close is exclusive)")
	}
	if schedule.OpenAt(time.Friday, 12*60) {
		t.Error("open Friday noon, want closed")
	}
}

func TestParseWrappingDayRange(t *testing.T) {
	schedule, err := Parse("Sat-Mon 11:00-15:00")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for _, day := range []time.Weekday{time.Saturday, time.Sunday, time.Monday} {
		if !schedule.OpenAt(day, 12*60) {
			t.Errorf("closed %v noon, want open", day)
		}
	}
	if schedule.OpenAt(time.Tuesday, 12*60) {
		t.Error("open Tuesday noon, want closed")
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	for _, text := range []string{
		"",
		"Mon",
		"Mon 9am-5pm",
		"Funday 09:00-17:00",
		"Mon-Fri 09:00-17:00,",
		"Mon-Fri 0900-1700",
	} {
		if _, err := Parse(text); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", text)
		}
	}
}

func TestOpenOnUsesLocalTime(t *testing.T) {
	schedule, err := Parse("Mon-Fri 09:00-17:00")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	location, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}
	// 2026-03-16 is a Monday; 10:30 local is inside the interval.
	local := time.Date(2026, 3, 16, 10, 30, 0, 0, location)
	if !schedule.OpenOn(local) {
		t.Error("closed Monday 10:30 local, want open")
	}
	if schedule.OpenOn(time.Date(2026, 3, 16, 8, 0, 0, 0, location)) {
		t.Error("open Monday 08:00 local, want closed")
	}
}
