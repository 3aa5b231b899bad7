package instrument

import (
	"math"
	"testing"
	"time"

	"OptWatch/internal/domain/models"
)

func TestParse(t *testing.T) {
	spec, err := Parse("BTC-3AUG25-110000-C")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if spec.Underlying != "BTC" {
		t.Errorf("underlying = %q", spec.Underlying)
	}
	if spec.Type != models.Call {
		t.Errorf("type = %q", spec.Type)
	}
	if spec.Strike != 110000 {
		t.Errorf("strike = %v", spec.Strike)
	}
	want := time.Date(2025, time.August, 3, 8, 0, 0, 0, time.UTC)
	if !spec.Expiry.Equal(want) {
		t.Errorf("expiry = %v, want %v", spec.Expiry, want)
	}
}

func TestParseTwoDigitDayAndPut(t *testing.T) {
	spec, err := Parse("ETH-26DEC25-4000-P")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if spec.Type != models.Put {
		t.Errorf("type = %q", spec.Type)
	}
	want := time.Date(2025, time.December, 26, 8, 0, 0, 0, time.UTC)
	if !spec.Expiry.Equal(want) {
		t.Errorf("expiry = %v, want %v", spec.Expiry, want)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, name := range []string{
		"GARBAGE",
		"BTC-3AUG25-110000",
		"BTC-3XYZ25-110000-C",
		"BTC-AUG25-110000-C",
		"BTC-3AUG25-0-C",
		"BTC-3AUG25--110000-C",
		"BTC-3AUG25-110000-X",
		"",
	} {
		if _, err := Parse(name); err == nil {
			t.Errorf("Parse(%q): expected error", name)
		}
	}
}

func TestHoursToExpiry(t *testing.T) {
	now := time.Date(2025, time.July, 20, 0, 0, 0, 0, time.UTC)
	hours, err := HoursToExpiry("BTC-3AUG25-110000-C", now)
	if err != nil {
		t.Fatalf("hours: %v", err)
	}
	// 14 days and 8 hours out.
	if want := 14*24 + 8.0; math.Abs(hours-want) > 1e-9 {
		t.Errorf("hours = %v, want %v", hours, want)
	}
}

func TestHoursToExpiryAtSettlement(t *testing.T) {
	now := time.Date(2025, time.August, 3, 8, 0, 0, 0, time.UTC)
	hours, err := HoursToExpiry("BTC-3AUG25-110000-C", now)
	if err != nil {
		t.Fatalf("hours: %v", err)
	}
	if hours != 0 {
		t.Errorf("hours = %v, want 0", hours)
	}
}

func TestHoursToExpiryClampsPast(t *testing.T) {
	now := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	hours, err := HoursToExpiry("BTC-3AUG25-110000-C", now)
	if err != nil {
		t.Fatalf("hours: %v", err)
	}
	if hours != 0 {
		t.Errorf("hours = %v, want 0 for expired instrument", hours)
	}
}

func TestHoursToExpiryUnknown(t *testing.T) {
	if _, err := HoursToExpiry("GARBAGE", time.Now()); err == nil {
		t.Fatal("expected error for unparseable instrument")
	}
}
