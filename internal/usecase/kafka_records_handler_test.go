package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"OptWatch/internal/domain/models"
)

func TestBridgeHandlerStoresRecord(t *testing.T) {
	sink := &fakeSink{}
	h := NewRecordBridgeHandler("optwatch.records", sink, newTestLogger(t))

	rec := models.MonitoringRecord{
		Timestamp:      time.Date(2025, 8, 3, 12, 0, 5, 0, time.UTC),
		IndexPrice:     115000,
		RollingAverage: 114800,
		ForwardPrice:   114800,
		Results:        []models.PricingResult{{Instrument: "BTC-3AUG25-110000-C"}},
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("records = %d, want 1", sink.count())
	}
	got := sink.records[0]
	if got.IndexPrice != 115000 || len(got.Results) != 1 {
		t.Errorf("stored record = %+v", got)
	}
}

func TestBridgeHandlerSkipsUndecodableMessage(t *testing.T) {
	sink := &fakeSink{}
	h := NewRecordBridgeHandler("optwatch.records", sink, newTestLogger(t))

	if err := h.Handle(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("undecodable message should not be retried: %v", err)
	}
	if sink.count() != 0 {
		t.Errorf("records = %d, want 0", sink.count())
	}
}

func TestBridgeHandlerPropagatesWriteError(t *testing.T) {
	sink := &fakeSink{failAll: true}
	h := NewRecordBridgeHandler("optwatch.records", sink, newTestLogger(t))

	b, _ := json.Marshal(models.MonitoringRecord{Timestamp: time.Now()})
	if err := h.Handle(context.Background(), b); err == nil {
		t.Fatal("write failures should surface for retry")
	}
}
