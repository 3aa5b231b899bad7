package usecase

import (
	"fmt"

	"OptWatch/internal/domain/models"
	drepo "OptWatch/internal/domain/repository"
	"OptWatch/internal/instrument"
	"OptWatch/internal/pricing"
	"OptWatch/pkg/logger"
	"OptWatch/pkg/util"
)

const hoursPerYear = 24 * 365

// QuoteProcessor turns a book snapshot into per-instrument pricing
// results for the configured watch list. Output order always follows
// the configured order, and every configured instrument produces a
// result even when the exchange snapshot omits it.
type QuoteProcessor struct {
	instruments []string
	clock       drepo.Clock
	log         *logger.Logger
}

func NewQuoteProcessor(instruments []string, clock drepo.Clock, log *logger.Logger) *QuoteProcessor {
	return &QuoteProcessor{instruments: instruments, clock: clock, log: log}
}

// Process prices each monitored instrument against forward. A missing
// quote, unparsable name, expired contract or absent volatility leaves
// the corresponding side nil; a pricing failure on valid inputs aborts
// the cycle.
func (p *QuoteProcessor) Process(forward float64, quotes []models.OptionQuote) ([]models.PricingResult, error) {
	byName := make(map[string]models.OptionQuote, len(quotes))
	for _, q := range quotes {
		byName[q.InstrumentName] = q
	}

	now := p.clock.Now()
	results := make([]models.PricingResult, 0, len(p.instruments))
	for _, name := range p.instruments {
		res := models.PricingResult{Instrument: name}

		q, ok := byName[name]
		if !ok {
			p.log.Warn("instrument missing from book snapshot", logger.String("instrument", name))
			results = append(results, res)
			continue
		}
		res.MarketPrice = q.MarkPrice

		spec, err := instrument.Parse(name)
		if err != nil {
			p.log.Warn("unparsable instrument name", logger.String("instrument", name), logger.Error(err))
			results = append(results, res)
			continue
		}

		hours, err := instrument.HoursToExpiry(name, now)
		if err != nil {
			p.log.Warn("expiry resolution failed", logger.String("instrument", name), logger.Error(err))
			results = append(results, res)
			continue
		}
		years := util.RoundPlaces(hours/hoursPerYear, 10)
		sigma := ivFraction(q.MarkIV)

		if years > 0 && sigma > 0 {
			price, err := pricing.Price(spec.Type, forward, spec.Strike, years, sigma)
			if err != nil {
				return nil, fmt.Errorf("price %s: %w", name, err)
			}
			rounded := util.RoundPlaces(price, 10)
			res.ModelPrice = &rounded
		}
		results = append(results, res)
	}
	return results, nil
}

// ivFraction converts the exchange's percent quote to a decimal
// volatility. Nil or zero means the exchange published no volatility.
func ivFraction(markIV *float64) float64 {
	if markIV == nil {
		return 0
	}
	return *markIV / 100
}
