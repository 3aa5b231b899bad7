package usecase

import (
	"context"
	"errors"
	"time"

	"OptWatch/internal/domain/models"
	drepo "OptWatch/internal/domain/repository"
	"OptWatch/internal/rolling"
	"OptWatch/pkg/cache"
	"OptWatch/pkg/logger"
)

// LatestRecordKey is the cache key holding the most recent record.
const LatestRecordKey = "latest"

var errStopTime = errors.New("session stop time reached")

// MonitorConfig is the slice of configuration the session loop needs.
type MonitorConfig struct {
	IndexName    string
	Currency     string
	SinkName     string
	PollInterval time.Duration
	StopHour     int
	StopMinute   int
	Location     *time.Location
}

// Monitor runs the polling session: fetch index price and option book,
// maintain the rolling average, price the watch list and persist one
// record per cycle. The session ends when the wall clock in the
// configured timezone enters the stop minute, or when ctx is cancelled.
type Monitor struct {
	cfg       MonitorConfig
	source    drepo.MarketData
	sink      drepo.RecordSink
	cache     cache.Service
	metrics   drepo.Metrics
	window    *rolling.Window
	processor *QuoteProcessor
	clock     drepo.Clock
	log       *logger.Logger
}

func NewMonitor(
	cfg MonitorConfig,
	source drepo.MarketData,
	sink drepo.RecordSink,
	cacheSvc cache.Service,
	metrics drepo.Metrics,
	window *rolling.Window,
	processor *QuoteProcessor,
	clock drepo.Clock,
	log *logger.Logger,
) *Monitor {
	return &Monitor{
		cfg:       cfg,
		source:    source,
		sink:      sink,
		cache:     cacheSvc,
		metrics:   metrics,
		window:    window,
		processor: processor,
		clock:     clock,
		log:       log,
	}
}

// Run executes cycles until the stop time or cancellation. A nil return
// means the session completed normally.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("monitoring session started",
		logger.String("index", m.cfg.IndexName),
		logger.String("currency", m.cfg.Currency),
		logger.Duration("poll_interval", m.cfg.PollInterval))

	for {
		if m.stopReached(m.clock.Now()) {
			m.log.Info("stop time reached, ending session")
			return nil
		}

		if err := m.cycle(ctx); err != nil {
			if errors.Is(err, errStopTime) {
				m.log.Info("stop time reached during retry, ending session")
				return nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.cfg.PollInterval):
		}
	}
}

// stopReached reports whether now, in the session timezone, has entered
// the configured stop minute.
func (m *Monitor) stopReached(now time.Time) bool {
	local := now.In(m.cfg.Location)
	return local.Hour() == m.cfg.StopHour && local.Minute() >= m.cfg.StopMinute
}

func (m *Monitor) cycle(ctx context.Context) error {
	started := time.Now()

	spot, err := fetchWithRetry(ctx, m, "index_price", func(ctx context.Context) (float64, error) {
		return m.source.IndexPrice(ctx, m.cfg.IndexName)
	})
	if err != nil {
		return err
	}

	quotes, err := fetchWithRetry(ctx, m, "option_book", func(ctx context.Context) ([]models.OptionQuote, error) {
		return m.source.OptionBook(ctx, m.cfg.Currency)
	})
	if err != nil {
		return err
	}

	m.window.Push(spot)
	avg := m.window.Mean()
	forward := avg

	results, err := m.processor.Process(forward, quotes)
	if err != nil {
		return err
	}

	rec := &models.MonitoringRecord{
		Timestamp:      m.clock.Now(),
		IndexPrice:     spot,
		RollingAverage: avg,
		ForwardPrice:   forward,
		Results:        results,
	}

	if err := m.sink.Write(ctx, rec); err != nil {
		m.log.Error("record write failed", logger.String("sink", m.cfg.SinkName), logger.Error(err))
		m.metrics.RecordWriteError(m.cfg.SinkName)
	} else {
		m.metrics.RecordWrite(m.cfg.SinkName)
	}

	if err := m.cache.Set(ctx, LatestRecordKey, rec, 0); err != nil {
		m.log.Warn("latest record cache update failed", logger.Error(err))
	}

	m.metrics.RecordCycle()
	m.metrics.RecordIndex(spot, avg, forward)
	for _, res := range results {
		if res.MarketPrice != nil {
			m.metrics.RecordOptionPrice(res.Instrument, "market", *res.MarketPrice)
		}
		if res.ModelPrice != nil {
			m.metrics.RecordOptionPrice(res.Instrument, "model", *res.ModelPrice)
		}
	}
	m.metrics.RecordLatency("cycle", time.Since(started).Seconds())

	m.log.Info("cycle complete",
		logger.Float64("index_price", spot),
		logger.Float64("rolling_average", avg),
		logger.Float64("forward_price", forward),
		logger.Int("instruments", len(results)))
	return nil
}

// fetchWithRetry keeps calling fn until it succeeds. Failures are not
// fatal to the session: the monitor waits one poll interval and tries
// again, giving up only on cancellation or the stop time.
func fetchWithRetry[T any](ctx context.Context, m *Monitor, source string, fn func(context.Context) (T, error)) (T, error) {
	for {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		m.log.Warn("fetch failed, retrying next interval",
			logger.String("source", source), logger.Error(err))
		m.metrics.RecordFetchError(source)

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(m.cfg.PollInterval):
		}

		if m.stopReached(m.clock.Now()) {
			var zero T
			return zero, errStopTime
		}
	}
}
