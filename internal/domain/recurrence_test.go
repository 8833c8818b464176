package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseRecurrence(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"90", 90 * time.Minute},
		{"2h", 2 * time.Hour},
		{"1h30m", 90 * time.Minute},
		{" 1H 30M ", 90 * time.Minute},
	}
	for _, tc := range cases {
		got, err := ParseRecurrence(tc.in)
		if err != nil {
			t.Fatalf("ParseRecurrence(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseRecurrence(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseRecurrence_Errors(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"", ErrEmptyRecurrence},
		{"soon", ErrInvalidRecurrence},
		{"5m", ErrRecurrenceSmall},
		{"200h", ErrRecurrenceLarge},
	}
	for _, tc := range cases {
		if _, err := ParseRecurrence(tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("ParseRecurrence(%q): want %v, got %v", tc.in, tc.want, err)
		}
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindDailyReset, KindWeeklyReset, KindDomain, KindResinFull, KindCustom} {
		if !k.Valid() {
			t.Fatalf("%s should be valid", k)
		}
	}
	if Kind("never").Valid() {
		t.Fatal("unknown kind should be invalid")
	}
}
