package repository

import (
	"context"

	"OptWatch/internal/domain/models"
)

type MarketData interface {
	IndexPrice(ctx context.Context, indexName string) (float64, error)
	OptionBook(ctx context.Context, currency string) ([]models.OptionQuote, error)
}

type RecordSink interface {
	Init(ctx context.Context) error // ensure header row / tables exist
	Write(ctx context.Context, rec *models.MonitoringRecord) error
	Close() error
}

type Metrics interface {
	RecordCycle()
	RecordFetchError(source string)
	RecordWrite(sink string)
	RecordWriteError(sink string)
	RecordIndex(spot, rollingAvg, forward float64)
	RecordOptionPrice(instrument, kind string, price float64)
	RecordLatency(op string, seconds float64)
}
