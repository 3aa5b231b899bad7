package util

import "testing"

func TestRoundPlaces(t *testing.T) {
	cases := []struct {
		in   float64
		n    int
		want float64
	}{
		{0.1 + 0.2, 10, 0.3},
		{1.23456789014, 10, 1.2345678901},
		{2.5, 0, 3},
		{-2.5, 0, -3},
		{115000, 10, 115000},
	}
	for _, c := range cases {
		if got := RoundPlaces(c.in, c.n); got != c.want {
			t.Errorf("RoundPlaces(%v, %d) = %v, want %v", c.in, c.n, got, c.want)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	if got := FormatFloat(0.0435); got != "0.0435" {
		t.Errorf("unexpected format %q", got)
	}
	if got := FormatFloat(115000); got != "115000" {
		t.Errorf("unexpected format %q", got)
	}
}
