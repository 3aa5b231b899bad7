package models

import "time"

// OptionType distinguishes the two payoff conventions Deribit lists.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// OptionQuote is one exchange-reported book summary for an option
// instrument. MarkPrice and MarkIV may be absent; MarkIV is quoted in
// percent (45 means 45%).
type OptionQuote struct {
	InstrumentName string   `json:"instrument_name"`
	MarkPrice      *float64 `json:"mark_price,omitempty"`
	MarkIV         *float64 `json:"mark_iv,omitempty"`
}

// OptionSpec is the contract description decoded from an instrument
// name such as BTC-3AUG25-110000-C. Expiry is fixed at 08:00:00 UTC on
// the encoded calendar date.
type OptionSpec struct {
	Underlying string
	Type       OptionType
	Strike     float64
	Expiry     time.Time
}

// PricingResult compares the exchange mark against the model price for
// one monitored instrument. Either side may be absent: the market price
// when the exchange omits it, the model price when time-to-expiration
// or implied volatility is non-positive.
type PricingResult struct {
	Instrument  string   `json:"instrument"`
	MarketPrice *float64 `json:"market_price"`
	ModelPrice  *float64 `json:"model_price"`
}

// MonitoringRecord is one output row: the index snapshot plus one
// PricingResult per monitored instrument, in configured order.
type MonitoringRecord struct {
	Timestamp      time.Time       `json:"timestamp"`
	IndexPrice     float64         `json:"index_price"`
	RollingAverage float64         `json:"rolling_average"`
	ForwardPrice   float64         `json:"forward_price"`
	Results        []PricingResult `json:"results"`
}
