package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"OptWatch/internal/domain/models"
	"OptWatch/internal/rolling"
	"OptWatch/pkg/cache"
)

type mutClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *mutClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *mutClock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type fakeSource struct {
	mu        sync.Mutex
	prices    []float64
	i         int
	failFirst int
	quotes    []models.OptionQuote
}

func (s *fakeSource) IndexPrice(ctx context.Context, indexName string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFirst > 0 {
		s.failFirst--
		return 0, errors.New("upstream unavailable")
	}
	p := s.prices[s.i%len(s.prices)]
	s.i++
	return p, nil
}

func (s *fakeSource) OptionBook(ctx context.Context, currency string) ([]models.OptionQuote, error) {
	return s.quotes, nil
}

type fakeSink struct {
	mu      sync.Mutex
	records []*models.MonitoringRecord
	failAll bool
	onWrite func(n int)
}

func (s *fakeSink) Init(ctx context.Context) error { return nil }

func (s *fakeSink) Write(ctx context.Context, rec *models.MonitoringRecord) error {
	s.mu.Lock()
	s.records = append(s.records, rec)
	n := len(s.records)
	s.mu.Unlock()
	if s.onWrite != nil {
		s.onWrite(n)
	}
	if s.failAll {
		return errors.New("disk full")
	}
	return nil
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type fakeMetrics struct {
	mu          sync.Mutex
	cycles      int
	fetchErrors int
	writes      int
	writeErrors int
}

func (m *fakeMetrics) RecordCycle() {
	m.mu.Lock()
	m.cycles++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordFetchError(string) {
	m.mu.Lock()
	m.fetchErrors++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordWrite(string) {
	m.mu.Lock()
	m.writes++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordWriteError(string) {
	m.mu.Lock()
	m.writeErrors++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordIndex(float64, float64, float64)     {}
func (m *fakeMetrics) RecordOptionPrice(string, string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)             {}

func testMonitorConfig() MonitorConfig {
	return MonitorConfig{
		IndexName:    "btc_usd",
		Currency:     "BTC",
		SinkName:     "csv",
		PollInterval: time.Millisecond,
		StopHour:     4,
		StopMinute:   5,
		Location:     time.UTC,
	}
}

func quoteFixture() []models.OptionQuote {
	return []models.OptionQuote{
		{InstrumentName: "BTC-3AUG25-110000-C", MarkPrice: ptr(0.0575), MarkIV: ptr(45.0)},
	}
}

func newTestMonitor(t *testing.T, cfg MonitorConfig, src *fakeSource, sink *fakeSink, clock *mutClock, m *fakeMetrics) *Monitor {
	t.Helper()
	log := newTestLogger(t)
	proc := NewQuoteProcessor([]string{"BTC-3AUG25-110000-C"}, clock, log)
	return NewMonitor(cfg, src, sink, cache.NewMemoryCache(), m, rolling.NewWindow(360), proc, clock, log)
}

func TestRunReturnsImmediatelyAtStopTime(t *testing.T) {
	clock := &mutClock{t: time.Date(2025, 8, 3, 4, 5, 0, 0, time.UTC)}
	sink := &fakeSink{}
	src := &fakeSource{prices: []float64{100000}, quotes: quoteFixture()}
	m := newTestMonitor(t, testMonitorConfig(), src, sink, clock, &fakeMetrics{})

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sink.count() != 0 {
		t.Errorf("records = %d, want 0", sink.count())
	}
}

func TestRunWritesRecordsUntilStopTime(t *testing.T) {
	clock := &mutClock{t: time.Date(2025, 8, 3, 2, 0, 0, 0, time.UTC)}
	src := &fakeSource{prices: []float64{100000, 110000}, quotes: quoteFixture()}
	sink := &fakeSink{}
	sink.onWrite = func(n int) {
		if n == 2 {
			clock.set(time.Date(2025, 8, 3, 4, 5, 0, 0, time.UTC))
		}
	}
	metrics := &fakeMetrics{}
	m := newTestMonitor(t, testMonitorConfig(), src, sink, clock, metrics)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sink.count() != 2 {
		t.Fatalf("records = %d, want 2", sink.count())
	}

	first, second := sink.records[0], sink.records[1]
	if first.IndexPrice != 100000 || first.RollingAverage != 100000 {
		t.Errorf("first record = %+v", first)
	}
	if second.IndexPrice != 110000 || second.RollingAverage != 105000 {
		t.Errorf("second record average = %v, want 105000", second.RollingAverage)
	}
	if second.ForwardPrice != second.RollingAverage {
		t.Errorf("forward %v should equal rolling average %v", second.ForwardPrice, second.RollingAverage)
	}
	if metrics.cycles != 2 || metrics.writes != 2 {
		t.Errorf("cycles=%d writes=%d, want 2/2", metrics.cycles, metrics.writes)
	}

	for _, rec := range sink.records {
		if len(rec.Results) != 1 || rec.Results[0].ModelPrice == nil {
			t.Errorf("record should carry a priced result: %+v", rec.Results)
		}
	}
}

func TestRunRetriesFailedFetch(t *testing.T) {
	clock := &mutClock{t: time.Date(2025, 8, 3, 2, 0, 0, 0, time.UTC)}
	src := &fakeSource{prices: []float64{100000}, failFirst: 1, quotes: quoteFixture()}
	sink := &fakeSink{}
	sink.onWrite = func(n int) {
		if n == 1 {
			clock.set(time.Date(2025, 8, 3, 4, 5, 0, 0, time.UTC))
		}
	}
	metrics := &fakeMetrics{}
	m := newTestMonitor(t, testMonitorConfig(), src, sink, clock, metrics)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("records = %d, want 1", sink.count())
	}
	if metrics.fetchErrors != 1 {
		t.Errorf("fetch errors = %d, want 1", metrics.fetchErrors)
	}
}

func TestRunSurvivesSinkErrors(t *testing.T) {
	clock := &mutClock{t: time.Date(2025, 8, 3, 2, 0, 0, 0, time.UTC)}
	src := &fakeSource{prices: []float64{100000}, quotes: quoteFixture()}
	sink := &fakeSink{failAll: true}
	sink.onWrite = func(n int) {
		if n == 2 {
			clock.set(time.Date(2025, 8, 3, 4, 5, 0, 0, time.UTC))
		}
	}
	metrics := &fakeMetrics{}
	m := newTestMonitor(t, testMonitorConfig(), src, sink, clock, metrics)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run should not fail on sink errors: %v", err)
	}
	if metrics.writeErrors != 2 {
		t.Errorf("write errors = %d, want 2", metrics.writeErrors)
	}
	if metrics.cycles != 2 {
		t.Errorf("cycles = %d, want 2", metrics.cycles)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	clock := &mutClock{t: time.Date(2025, 8, 3, 2, 0, 0, 0, time.UTC)}
	src := &fakeSource{prices: []float64{100000}, quotes: quoteFixture()}
	sink := &fakeSink{}
	m := newTestMonitor(t, testMonitorConfig(), src, sink, clock, &fakeMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run after cancel: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestStopReachedBoundary(t *testing.T) {
	cfg := testMonitorConfig()
	m := &Monitor{cfg: cfg}

	cases := []struct {
		now  time.Time
		want bool
	}{
		{time.Date(2025, 8, 3, 4, 4, 59, 0, time.UTC), false},
		{time.Date(2025, 8, 3, 4, 5, 0, 0, time.UTC), true},
		{time.Date(2025, 8, 3, 4, 59, 0, 0, time.UTC), true},
		{time.Date(2025, 8, 3, 5, 0, 0, 0, time.UTC), false},
		{time.Date(2025, 8, 3, 3, 30, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := m.stopReached(tc.now); got != tc.want {
			t.Errorf("stopReached(%v) = %v, want %v", tc.now, got, tc.want)
		}
	}
}
