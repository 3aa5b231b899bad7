package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"OptWatch/internal/domain/models"
	drepo "OptWatch/internal/domain/repository"
	"OptWatch/pkg/util"
)

// CSVSink appends monitoring records to a local CSV file. The column
// set is fixed at Init time from the configured instrument list: four
// index columns followed by a market/model pair per instrument. The
// header is written only when the file is new or empty, so restarts
// keep appending to the same log.
type CSVSink struct {
	path        string
	instruments []string
	location    *time.Location

	file   *os.File
	writer *csv.Writer
}

// NewCSVSink creates a sink writing to path. Timestamps are rendered in
// loc, matching the session timezone.
func NewCSVSink(path string, instruments []string, loc *time.Location) *CSVSink {
	return &CSVSink{path: path, instruments: instruments, location: loc}
}

// Init opens the file for appending and writes the header row if the
// file is empty.
func (s *CSVSink) Init(ctx context.Context) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv log: %w", err)
	}
	s.file = f
	s.writer = csv.NewWriter(f)

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat csv log: %w", err)
	}
	if info.Size() == 0 {
		if err := s.writer.Write(s.header()); err != nil {
			_ = f.Close()
			return fmt.Errorf("write csv header: %w", err)
		}
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			_ = f.Close()
			return fmt.Errorf("flush csv header: %w", err)
		}
	}
	return nil
}

func (s *CSVSink) header() []string {
	cols := []string{"timestamp", "index_price", "rolling_average", "forward_price"}
	for _, inst := range s.instruments {
		cols = append(cols, inst+"_market_price", inst+"_our_price")
	}
	return cols
}

// Write appends one row and flushes it so every cycle is durable on
// disk before the next one starts.
func (s *CSVSink) Write(ctx context.Context, rec *models.MonitoringRecord) error {
	row := []string{
		rec.Timestamp.In(s.location).Format(time.RFC3339),
		util.FormatFloat(util.RoundPlaces(rec.IndexPrice, 10)),
		util.FormatFloat(util.RoundPlaces(rec.RollingAverage, 10)),
		util.FormatFloat(util.RoundPlaces(rec.ForwardPrice, 10)),
	}
	for _, res := range rec.Results {
		row = append(row, formatOptional(res.MarketPrice), formatOptional(res.ModelPrice))
	}

	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush csv row: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return util.FormatFloat(util.RoundPlaces(*v, 10))
}

var _ drepo.RecordSink = (*CSVSink)(nil)
