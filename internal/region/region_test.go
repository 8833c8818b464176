package region

import (
	"errors"
	"testing"
)

func TestLoad_KnownRegions(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"asia", "eu", "na", "tw"}
	got := cat.IDs()
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}

	eu, err := cat.Get("eu")
	if err != nil {
		t.Fatalf("get eu: %v", err)
	}
	if eu.TZ != "Europe/Berlin" || eu.DailyResetHour != 4 || eu.WeeklyResetDay != 1 {
		t.Fatalf("eu config wrong: %+v", eu)
	}
	if eu.Location() == nil {
		t.Fatal("location not cached")
	}
}

func TestGet_Unknown(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cat.Get("mars"); !errors.Is(err, ErrUnknownRegion) {
		t.Fatalf("want ErrUnknownRegion, got %v", err)
	}
}

func TestParse_RejectsBadCatalog(t *testing.T) {
	cases := map[string]string{
		"empty":    "regions: []",
		"bad tz":   "regions:\n  - id: x\n    tz: Not/AZone\n    weekly_reset_day: 1",
		"bad day":  "regions:\n  - id: x\n    tz: UTC\n    weekly_reset_day: 8",
		"bad yaml": "regions: {",
	}
	for name, data := range cases {
		if _, err := parse([]byte(data)); err == nil {
			t.Fatalf("%s: want error", name)
		}
	}
}
