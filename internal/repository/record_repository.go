package repository

import (
	"context"
	"fmt"

	"OptWatch/internal/domain/models"
	drepo "OptWatch/internal/domain/repository"
	"OptWatch/pkg/clickhouse"
	"OptWatch/pkg/kafka"
)

// ClickHouseSink stores monitoring records in ClickHouse, one row per
// monitored instrument per cycle. Rows share the cycle timestamp, so
// reconstructing the wide per-cycle view is a GROUP BY away.
type ClickHouseSink struct {
	client *clickhouse.Client
	table  string
}

// NewClickHouseSink creates a sink over an established client.
func NewClickHouseSink(client *clickhouse.Client, table string) *ClickHouseSink {
	if table == "" {
		table = "option_monitor"
	}
	return &ClickHouseSink{client: client, table: table}
}

// Init creates the target table if it does not exist.
func (s *ClickHouseSink) Init(ctx context.Context) error {
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			ts DateTime64(3),
			index_price Float64,
			rolling_average Float64,
			forward_price Float64,
			instrument String,
			market_price Nullable(Float64),
			model_price Nullable(Float64)
		) ENGINE = MergeTree()
		ORDER BY (instrument, ts)`, s.table)
	return s.client.InitSchema(ctx, []string{stmt})
}

// Write inserts one row per pricing result inside a transaction so a
// cycle lands atomically.
func (s *ClickHouseSink) Write(ctx context.Context, rec *models.MonitoringRecord) error {
	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clickhouse begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (ts, index_price, rolling_average, forward_price, instrument, market_price, model_price) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clickhouse prepare: %w", err)
	}
	defer stmt.Close()

	for _, res := range rec.Results {
		_, err := stmt.ExecContext(ctx,
			rec.Timestamp,
			rec.IndexPrice,
			rec.RollingAverage,
			rec.ForwardPrice,
			res.Instrument,
			res.MarketPrice,
			res.ModelPrice,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clickhouse insert %s: %w", res.Instrument, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clickhouse commit: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *ClickHouseSink) Close() error {
	return s.client.Close()
}

// KafkaSink publishes each monitoring record as one JSON message. The
// key is the underlying currency so all records for a currency land on
// the same partition, preserving cycle order downstream.
type KafkaSink struct {
	producer *kafka.Producer
	topic    string
	key      []byte
}

// NewKafkaSink creates a sink over an established producer.
func NewKafkaSink(producer *kafka.Producer, topic, currency string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, key: []byte(currency)}
}

// Init is a no-op; the producer is connected lazily on first publish.
func (s *KafkaSink) Init(ctx context.Context) error { return nil }

// Write publishes the record.
func (s *KafkaSink) Write(ctx context.Context, rec *models.MonitoringRecord) error {
	if err := s.producer.Publish(ctx, s.topic, s.key, rec); err != nil {
		return fmt.Errorf("kafka publish record: %w", err)
	}
	return nil
}

// Close closes the producer.
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}

var (
	_ drepo.RecordSink = (*ClickHouseSink)(nil)
	_ drepo.RecordSink = (*KafkaSink)(nil)
)
