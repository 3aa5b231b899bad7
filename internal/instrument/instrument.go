package instrument

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"OptWatch/internal/domain/models"
)

// Deribit settles options at 08:00 UTC on the expiry date.
const settlementHour = 8

var months = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// Parse decodes a Deribit option instrument name, positional format
// UNDERLYING-DDMMMYY-STRIKE-{C|P}, e.g. BTC-3AUG25-110000-C.
func Parse(name string) (models.OptionSpec, error) {
	parts := strings.Split(name, "-")
	if len(parts) != 4 {
		return models.OptionSpec{}, fmt.Errorf("instrument %q: want 4 dash-separated segments, got %d", name, len(parts))
	}

	expiry, err := parseExpiry(parts[1])
	if err != nil {
		return models.OptionSpec{}, fmt.Errorf("instrument %q: %w", name, err)
	}

	strike, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || strike <= 0 {
		return models.OptionSpec{}, fmt.Errorf("instrument %q: bad strike %q", name, parts[2])
	}

	var typ models.OptionType
	switch parts[3] {
	case "C":
		typ = models.Call
	case "P":
		typ = models.Put
	default:
		return models.OptionSpec{}, fmt.Errorf("instrument %q: bad option type flag %q", name, parts[3])
	}

	return models.OptionSpec{
		Underlying: parts[0],
		Type:       typ,
		Strike:     strike,
		Expiry:     expiry,
	}, nil
}

// parseExpiry reads the DDMMMYY date segment (day without leading zero,
// uppercase three-letter month, two-digit year) and pins the settlement
// moment at 08:00:00 UTC.
func parseExpiry(s string) (time.Time, error) {
	if len(s) < 6 || len(s) > 7 {
		return time.Time{}, fmt.Errorf("bad expiry segment %q", s)
	}
	dayDigits := len(s) - 5

	day, err := strconv.Atoi(s[:dayDigits])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("bad expiry day in %q", s)
	}
	month, ok := months[strings.ToUpper(s[dayDigits:dayDigits+3])]
	if !ok {
		return time.Time{}, fmt.Errorf("bad expiry month in %q", s)
	}
	year, err := strconv.Atoi(s[dayDigits+3:])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad expiry year in %q", s)
	}

	return time.Date(2000+year, month, day, settlementHour, 0, 0, 0, time.UTC), nil
}

// HoursToExpiry returns the non-negative number of hours between now
// and the instrument's settlement moment. An unparseable name yields an
// error the caller should treat as "unavailable", not as fatal.
func HoursToExpiry(name string, now time.Time) (float64, error) {
	spec, err := Parse(name)
	if err != nil {
		return 0, err
	}
	hours := spec.Expiry.Sub(now).Hours()
	if hours < 0 {
		return 0, nil
	}
	return hours, nil
}
