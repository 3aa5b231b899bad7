package pricing

import (
	"fmt"
	"math"

	"OptWatch/internal/domain/models"
)

// ErrInvalidOptionType reports a payoff type other than call or put.
// Monitored instruments are validated configuration, so hitting this is
// a programming error, not an operational one.
var ErrInvalidOptionType = fmt.Errorf("pricing: option type must be call or put")

// Price returns the normalized option premium under the forward-measure
// Black-76 convention Deribit quotes in: the premium is a fraction of
// the underlying, so no discounting term appears.
//
//	d1 = (ln(F/K) + 0.5·σ²·T) / (σ·√T)
//	d2 = d1 − σ·√T
//	call: Φ(d1) − (K/F)·Φ(d2)
//	put:  (K/F)·Φ(−d2) − Φ(−d1)
//
// All of forward, strike, years and sigma must be strictly positive;
// the evaluation is undefined otherwise and an error is returned.
func Price(typ models.OptionType, forward, strike, years, sigma float64) (float64, error) {
	if forward <= 0 || strike <= 0 {
		return 0, fmt.Errorf("pricing: forward and strike must be positive (F=%v K=%v)", forward, strike)
	}
	if years <= 0 {
		return 0, fmt.Errorf("pricing: time to expiration must be positive (T=%v)", years)
	}
	if sigma <= 0 {
		return 0, fmt.Errorf("pricing: volatility must be positive (sigma=%v)", sigma)
	}

	volSqrtT := sigma * math.Sqrt(years)
	d1 := (math.Log(forward/strike) + 0.5*sigma*sigma*years) / volSqrtT
	d2 := d1 - volSqrtT

	switch typ {
	case models.Call:
		return normCDF(d1) - (strike/forward)*normCDF(d2), nil
	case models.Put:
		return (strike/forward)*normCDF(-d2) - normCDF(-d1), nil
	default:
		return 0, ErrInvalidOptionType
	}
}

// normCDF is the standard normal CDF. Erfc keeps the deep tails
// accurate where 0.5*(1+Erf(x)) would cancel.
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
