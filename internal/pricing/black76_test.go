package pricing

import (
	"errors"
	"math"
	"testing"

	"OptWatch/internal/domain/models"
)

func TestPricePutCallParity(t *testing.T) {
	// call − put must equal 1 − K/F under the normalized convention.
	cases := []struct {
		forward, strike, years, sigma float64
	}{
		{115000, 110000, 0.04, 0.45},
		{115000, 120000, 0.04, 0.45},
		{50000, 50000, 0.5, 0.8},
		{100, 250, 1.0, 0.3},
		{100, 40, 0.002, 1.2},
	}
	for _, c := range cases {
		call, err := Price(models.Call, c.forward, c.strike, c.years, c.sigma)
		if err != nil {
			t.Fatalf("call price: %v", err)
		}
		put, err := Price(models.Put, c.forward, c.strike, c.years, c.sigma)
		if err != nil {
			t.Fatalf("put price: %v", err)
		}
		want := 1 - c.strike/c.forward
		if diff := math.Abs((call - put) - want); diff > 1e-9 {
			t.Errorf("parity violated for F=%v K=%v: call-put=%v want=%v", c.forward, c.strike, call-put, want)
		}
	}
}

func TestPriceBounds(t *testing.T) {
	for _, typ := range []models.OptionType{models.Call, models.Put} {
		for _, strike := range []float64{40000, 110000, 115000, 300000} {
			for _, sigma := range []float64{0.05, 0.45, 2.0} {
				for _, years := range []float64{0.001, 0.04, 1.5} {
					p, err := Price(typ, 115000, strike, years, sigma)
					if err != nil {
						t.Fatalf("price(%s, K=%v, T=%v, sigma=%v): %v", typ, strike, years, sigma, err)
					}
					if p < 0 || p > 1 {
						t.Errorf("price(%s, K=%v, T=%v, sigma=%v) = %v out of [0,1]", typ, strike, years, sigma, p)
					}
				}
			}
		}
	}
}

func TestPriceExceedsIntrinsicBound(t *testing.T) {
	// The BTC-3AUG25-110000-C scenario: forward 115000, 45% vol.
	p, err := Price(models.Call, 115000, 110000, 0.0392694, 0.45)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	lower := math.Max(0, 1-110000.0/115000.0)
	if p <= lower {
		t.Errorf("call price %v should exceed intrinsic-like bound %v", p, lower)
	}
	if p > 1 {
		t.Errorf("call price %v above 1", p)
	}
}

func TestPriceInvalidInputs(t *testing.T) {
	cases := []struct {
		name                          string
		typ                           models.OptionType
		forward, strike, years, sigma float64
	}{
		{"zero time", models.Call, 115000, 110000, 0, 0.45},
		{"negative time", models.Put, 115000, 110000, -0.1, 0.45},
		{"zero vol", models.Call, 115000, 110000, 0.04, 0},
		{"zero forward", models.Call, 0, 110000, 0.04, 0.45},
		{"zero strike", models.Put, 115000, 0, 0.04, 0.45},
	}
	for _, c := range cases {
		if _, err := Price(c.typ, c.forward, c.strike, c.years, c.sigma); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestPriceInvalidType(t *testing.T) {
	_, err := Price(models.OptionType("straddle"), 115000, 110000, 0.04, 0.45)
	if !errors.Is(err, ErrInvalidOptionType) {
		t.Fatalf("expected ErrInvalidOptionType, got %v", err)
	}
}

func TestNormCDF(t *testing.T) {
	// Reference values to 10 decimal places.
	cases := []struct{ x, want float64 }{
		{0, 0.5},
		{1, 0.8413447461},
		{-1, 0.1586552539},
		{2.5, 0.9937903347},
		{-6, 0.0000000010},
	}
	for _, c := range cases {
		if got := normCDF(c.x); math.Abs(got-c.want) > 5e-11 {
			t.Errorf("normCDF(%v) = %.12f, want %.10f", c.x, got, c.want)
		}
	}
}
