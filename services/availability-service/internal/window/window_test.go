package window

import (
	"testing"
	"time"
)

func TestForDate_HomeZoneAnchored(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	date := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	win := ForDate(date, Morning, kolkata)

	// 09:00 IST == 03:30 UTC, 12:00 IST == 06:30 UTC.
	wantStart := time.Date(2026, 6, 25, 3, 30, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 6, 25, 6, 30, 0, 0, time.UTC)
	if !win.Start.Equal(wantStart) {
		t.Fatalf("window start: want %s, got %s", wantStart, win.Start)
	}
	if !win.End.Equal(wantEnd) {
		t.Fatalf("window end: want %s, got %s", wantEnd, win.End)
	}
}

func TestForDate_Profiles(t *testing.T) {
	cases := []struct {
		profile   Profile
		wantStart int
		wantEnd   int
	}{
		{Morning, 9, 12},
		{Afternoon, 12, 18},
		{Evening, 18, 22},
		{FullDay, 9, 22},
	}
	date := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	for _, tc := range cases {
		win := ForDate(date, tc.profile, time.UTC)
		if win.Start.Hour() != tc.wantStart || win.End.Hour() != tc.wantEnd {
			t.Fatalf("%s: want %d..%d, got %d..%d",
				tc.profile, tc.wantStart, tc.wantEnd, win.Start.Hour(), win.End.Hour())
		}
	}
}

func TestForDate_DSTTransitionKeepsWallClock(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// Spring-forward day: clocks jump 02:00 -> 03:00 CET -> CEST.
	date := time.Date(2026, 3, 29, 0, 0, 0, 0, berlin)
	win := ForDate(date, Morning, berlin)

	startLocal := win.Start.In(berlin)
	endLocal := win.End.In(berlin)
	if startLocal.Hour() != 9 || endLocal.Hour() != 12 {
		t.Fatalf("wall clock must survive DST: got %02d..%02d", startLocal.Hour(), endLocal.Hour())
	}
	if win.Duration() != 3*time.Hour {
		t.Fatalf("morning band after the jump is still 3h absolute, got %s", win.Duration())
	}
}

func TestForClock_DSTDayIsNot24Hours(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	date := time.Date(2026, 3, 29, 0, 0, 0, 0, berlin)
	win, err := ForClock(date, 0, 24, berlin)
	if err != nil {
		t.Fatalf("ForClock: %v", err)
	}
	// The lost hour makes the civil day 23 absolute hours; callers must not
	// assume endHour-startHour hours of real time.
	if win.Duration() != 23*time.Hour {
		t.Fatalf("expected 23h civil day, got %s", win.Duration())
	}
}

func TestForClock_RejectsBadHours(t *testing.T) {
	date := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	if _, err := ForClock(date, 17, 9, time.UTC); err == nil {
		t.Fatal("expected error for reversed hours")
	}
	if _, err := ForClock(date, -1, 9, time.UTC); err == nil {
		t.Fatal("expected error for negative start")
	}
	if _, err := ForClock(date, 9, 25, time.UTC); err == nil {
		t.Fatal("expected error for end past 24")
	}
}

func TestParseProfile(t *testing.T) {
	if p, err := ParseProfile(""); err != nil || p != FullDay {
		t.Fatalf("empty profile must default to full_day, got %q err %v", p, err)
	}
	if _, err := ParseProfile("midnight"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
	if p, err := ParseProfile("afternoon"); err != nil || p != Afternoon {
		t.Fatalf("parse afternoon: %q %v", p, err)
	}
}
