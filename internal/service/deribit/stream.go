package deribit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"OptWatch/internal/domain/models"
	drepo "OptWatch/internal/domain/repository"
	"OptWatch/pkg/logger"

	"github.com/gorilla/websocket"
)

// StreamingMarketData layers Deribit's websocket price-index channel on
// top of the REST client: IndexPrice serves the last streamed value,
// the option book still goes over REST. When no streamed value has
// arrived yet it falls through to REST so the first cycle is not lost.
type StreamingMarketData struct {
	rest           *Client
	websocketURL   string
	indexName      string
	reconnectDelay time.Duration
	log            *logger.Logger

	mu        sync.RWMutex
	lastPrice float64
	havePrice bool
}

// NewStream wraps rest with a websocket index subscription.
func NewStream(rest *Client, websocketURL, indexName string, log *logger.Logger) *StreamingMarketData {
	return &StreamingMarketData{
		rest:           rest,
		websocketURL:   websocketURL,
		indexName:      indexName,
		reconnectDelay: 5 * time.Second,
		log:            log,
	}
}

// Run connects, subscribes and keeps reading until ctx is cancelled,
// reconnecting on read failures.
func (s *StreamingMarketData) Run(ctx context.Context) {
	for {
		if err := s.connectAndRead(ctx); err != nil {
			s.log.Warn("deribit stream disconnected", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

type subscribeRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  struct {
		Channels []string `json:"channels"`
	} `json:"params"`
}

type notification struct {
	Method string `json:"method"`
	Params struct {
		Channel string `json:"channel"`
		Data    struct {
			Price float64 `json:"price"`
		} `json:"data"`
	} `json:"params"`
}

func (s *StreamingMarketData) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("deribit stream connect: %w", err)
	}
	defer conn.Close()

	req := subscribeRequest{JSONRPC: "2.0", Method: "public/subscribe"}
	req.Params.Channels = []string{"deribit_price_index." + s.indexName}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("deribit stream subscribe: %w", err)
	}
	s.log.Info("deribit stream subscribed", logger.String("index", s.indexName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, b, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("deribit stream read: %w", err)
		}
		var n notification
		if err := json.Unmarshal(b, &n); err != nil {
			continue // non-notification frame
		}
		if n.Method != "subscription" || n.Params.Data.Price <= 0 {
			continue
		}
		s.mu.Lock()
		s.lastPrice = n.Params.Data.Price
		s.havePrice = true
		s.mu.Unlock()
	}
}

// IndexPrice returns the most recent streamed index price, falling
// back to REST until the first notification lands.
func (s *StreamingMarketData) IndexPrice(ctx context.Context, indexName string) (float64, error) {
	s.mu.RLock()
	price, ok := s.lastPrice, s.havePrice
	s.mu.RUnlock()
	if ok {
		return price, nil
	}
	return s.rest.IndexPrice(ctx, indexName)
}

// OptionBook delegates to the REST client; Deribit has no snapshot
// channel for the whole option book.
func (s *StreamingMarketData) OptionBook(ctx context.Context, currency string) ([]models.OptionQuote, error) {
	return s.rest.OptionBook(ctx, currency)
}

var _ drepo.MarketData = (*StreamingMarketData)(nil)
