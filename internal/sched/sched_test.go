package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name string
		day  int
		hour int
		min  int
		now  time.Time
		want time.Time
	}{
		{
			name: "later this month",
			day:  20, hour: 9, min: 0,
			now:  date(2024, time.March, 15, 12, 0),
			want: date(2024, time.March, 20, 9, 0),
		},
		{
			name: "already passed, next month",
			day:  10, hour: 9, min: 0,
			now:  date(2024, time.March, 15, 12, 0),
			want: date(2024, time.April, 10, 9, 0),
		},
		{
			name: "day 31 clamped to april 30",
			day:  31, hour: 9, min: 0,
			now:  date(2024, time.April, 1, 0, 0),
			want: date(2024, time.April, 30, 9, 0),
		},
		{
			name: "day 30 clamped to feb 29 in leap year",
			day:  30, hour: 9, min: 0,
			now:  date(2024, time.February, 15, 0, 0),
			want: date(2024, time.February, 29, 9, 0),
		},
		{
			name: "day 30 clamped to feb 28",
			day:  30, hour: 9, min: 0,
			now:  date(2023, time.February, 15, 0, 0),
			want: date(2023, time.February, 28, 9, 0),
		},
		{
			name: "clamped this month, unclamped next",
			day:  31, hour: 9, min: 0,
			now:  date(2024, time.February, 29, 10, 0),
			want: date(2024, time.March, 31, 9, 0),
		},
		{
			name: "december wraps to january",
			day:  5, hour: 9, min: 0,
			now:  date(2024, time.December, 20, 0, 0),
			want: date(2025, time.January, 5, 9, 0),
		},
		{
			name: "now equals occurrence goes to next month",
			day:  15, hour: 12, min: 30,
			now:  date(2024, time.March, 15, 12, 30),
			want: date(2024, time.April, 15, 12, 30),
		},
		{
			name: "clamp applies in wrapped month too",
			day:  31, hour: 9, min: 0,
			now:  date(2024, time.January, 31, 10, 0),
			want: date(2024, time.February, 29, 9, 0),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextOccurrence(tc.day, tc.hour, tc.min, tc.now)
			if !got.Equal(tc.want) {
				t.Errorf("NextOccurrence(%d, %02d:%02d, %v) = %v, want %v",
					tc.day, tc.hour, tc.min, tc.now, got, tc.want)
			}
			if !got.After(tc.now) {
				t.Errorf("result %v is not strictly after now %v", got, tc.now)
			}
		})
	}
}

func TestNextOccurrenceAlwaysFuture(t *testing.T) {
	now := date(2023, time.February, 28, 23, 59)
	for day := 1; day <= 31; day++ {
		got := NextOccurrence(day, 0, 0, now)
		if !got.After(now) {
			t.Errorf("day=%d: %v not after %v", day, got, now)
		}
		if got.Day() > daysIn(got.Year(), got.Month()) {
			t.Errorf("day=%d: invalid date %v", day, got)
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{in: "09:00", hour: 9, minute: 0},
		{in: "23:59", hour: 23, minute: 59},
		{in: "0:05", hour: 0, minute: 5},
		{in: " 14:30 ", hour: 14, minute: 30},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "12:30:00", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		h, m, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %d:%d", tc.in, h, m)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error %v", tc.in, err)
			continue
		}
		if h != tc.hour || m != tc.minute {
			t.Errorf("ParseClock(%q) = %d:%d, want %d:%d", tc.in, h, m, tc.hour, tc.minute)
		}
	}
}

func TestArmRecurringValidation(t *testing.T) {
	s := New(time.UTC)
	defer s.Stop()

	noop := func(context.Context) {}

	if err := s.ArmRecurring(1, 2, 0, 9, 0, noop); err == nil {
		t.Error("day=0 accepted")
	}
	if err := s.ArmRecurring(1, 2, 32, 9, 0, noop); err == nil {
		t.Error("day=32 accepted")
	}
	if err := s.ArmRecurring(1, 2, 15, 24, 0, noop); err == nil {
		t.Error("hour=24 accepted")
	}
	if err := s.ArmRecurring(1, 2, 15, 9, 60, noop); err == nil {
		t.Error("minute=60 accepted")
	}
	if err := s.ArmRecurring(1, 2, 15, 9, 0, noop); err != nil {
		t.Errorf("valid trigger rejected: %v", err)
	}
}

func TestArmRecurringReplaces(t *testing.T) {
	s := New(time.UTC)
	defer s.Stop()

	noop := func(context.Context) {}
	for i := 0; i < 5; i++ {
		if err := s.ArmRecurring(100, 1, 15, 9, 0, noop); err != nil {
			t.Fatalf("re-arm %d: %v", i, err)
		}
	}

	s.mu.Lock()
	n := len(s.recurring)
	s.mu.Unlock()
	if n != 1 {
		t.Errorf("expected 1 recurring trigger after re-arms, got %d", n)
	}

	// снятие несуществующего триггера не должно падать
	s.DisarmRecurring(999, 999)
	s.DisarmRecurring(100, 1)

	s.mu.Lock()
	n = len(s.recurring)
	s.mu.Unlock()
	if n != 0 {
		t.Errorf("expected 0 recurring triggers after disarm, got %d", n)
	}
}

func TestArmOneShotFires(t *testing.T) {
	s := New(time.UTC)
	defer s.Stop()

	var fired atomic.Int32
	s.ArmOneShot("overdue_100_1_55", time.Now().Add(10*time.Millisecond), func(context.Context) {
		fired.Add(1)
	})

	deadline := time.After(2 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("one-shot did not fire")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestArmOneShotReplacesSameID(t *testing.T) {
	s := New(time.UTC)
	defer s.Stop()

	var a, b atomic.Int32
	s.ArmOneShot("overdue_100_1_55", time.Now().Add(30*time.Millisecond), func(context.Context) { a.Add(1) })
	s.ArmOneShot("overdue_100_1_55", time.Now().Add(30*time.Millisecond), func(context.Context) { b.Add(1) })

	time.Sleep(200 * time.Millisecond)
	if a.Load() != 0 {
		t.Error("replaced one-shot still fired")
	}
	if b.Load() != 1 {
		t.Errorf("replacement fired %d times, want 1", b.Load())
	}
}

func TestStopCancelsTriggers(t *testing.T) {
	s := New(time.UTC)

	var fired atomic.Int32
	s.ArmOneShot("x", time.Now().Add(50*time.Millisecond), func(context.Context) { fired.Add(1) })
	if err := s.ArmRecurring(1, 1, 15, 9, 0, func(context.Context) { fired.Add(1) }); err != nil {
		t.Fatal(err)
	}
	s.Stop()

	time.Sleep(150 * time.Millisecond)
	if fired.Load() != 0 {
		t.Errorf("triggers fired after Stop: %d", fired.Load())
	}
}

func TestJobPanicDoesNotCrash(t *testing.T) {
	s := New(time.UTC)
	defer s.Stop()

	var after atomic.Int32
	s.ArmOneShot("boom", time.Now().Add(5*time.Millisecond), func(context.Context) {
		panic("boom")
	})
	s.ArmOneShot("ok", time.Now().Add(20*time.Millisecond), func(context.Context) {
		after.Add(1)
	})

	time.Sleep(300 * time.Millisecond)
	if after.Load() != 1 {
		t.Errorf("job after panic fired %d times, want 1", after.Load())
	}
}
