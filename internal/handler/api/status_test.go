package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"OptWatch/internal/domain/models"
	"OptWatch/internal/usecase"
	"OptWatch/pkg/cache"
	xhttp "OptWatch/pkg/http"
	"OptWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

func newHandler(t *testing.T) (*StatusHandler, cache.Service, *echo.Echo) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c := cache.NewMemoryCache()
	h := NewStatusHandler([]string{"BTC-3AUG25-110000-C"}, c, log)
	e := echo.New()
	h.RegisterRoutes(e)
	return h, c, e
}

func doRequest(e *echo.Echo, path string) (*httptest.ResponseRecorder, xhttp.APIResponse) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var body xhttp.APIResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestHealth(t *testing.T) {
	_, _, e := newHandler(t)
	rec, body := doRequest(e, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if body.Status != http.StatusOK {
		t.Errorf("envelope status = %d", body.Status)
	}
}

func TestLatestBeforeFirstCycle(t *testing.T) {
	_, _, e := newHandler(t)
	_, body := doRequest(e, "/api/latest")
	if body.Status != http.StatusNotFound {
		t.Fatalf("envelope status = %d, want 404", body.Status)
	}
}

func TestLatestReturnsCachedRecord(t *testing.T) {
	_, c, e := newHandler(t)
	rec := models.MonitoringRecord{
		Timestamp:      time.Date(2025, 8, 3, 12, 0, 5, 0, time.UTC),
		IndexPrice:     115000,
		RollingAverage: 114800,
		ForwardPrice:   114800,
	}
	if err := c.Set(context.Background(), usecase.LatestRecordKey, rec, 0); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	w, body := doRequest(e, "/api/latest")
	if w.Code != http.StatusOK || body.Status != http.StatusOK {
		t.Fatalf("status = %d/%d", w.Code, body.Status)
	}
	b, _ := json.Marshal(body.Data)
	var got models.MonitoringRecord
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.IndexPrice != 115000 || got.ForwardPrice != 114800 {
		t.Errorf("record = %+v", got)
	}
}

func TestInstruments(t *testing.T) {
	_, _, e := newHandler(t)
	_, body := doRequest(e, "/api/instruments")
	if body.Status != http.StatusOK {
		t.Fatalf("envelope status = %d", body.Status)
	}
	list, ok := body.Data.([]interface{})
	if !ok || len(list) != 1 || list[0] != "BTC-3AUG25-110000-C" {
		t.Errorf("data = %v", body.Data)
	}
}
