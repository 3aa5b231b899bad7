package deribit

import (
	"context"
	"fmt"
	"time"

	"OptWatch/internal/domain/models"
	drepo "OptWatch/internal/domain/repository"
	"OptWatch/internal/service/ratelimit"
	xhttp "OptWatch/pkg/http"
)

const limiterKey = "deribit_public"

// Client implements MarketData over Deribit's public HTTP API.
type Client struct {
	baseURL   string
	http      *xhttp.Client
	limiter   *ratelimit.Limiter
	rateLimit float64 // requests per second, 0 disables limiting
}

// New creates a Deribit REST client. timeout should stay below the
// poll interval so a stalled request cannot stretch the cycle.
func New(baseURL string, timeout time.Duration, rateLimit float64) *Client {
	return &Client{
		baseURL:   baseURL,
		http:      xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter:   ratelimit.New(),
		rateLimit: rateLimit,
	}
}

type indexPriceResponse struct {
	Result struct {
		IndexPrice float64 `json:"index_price"`
	} `json:"result"`
}

// IndexPrice fetches the current index price for an index name such as
// btc_usd.
func (c *Client) IndexPrice(ctx context.Context, indexName string) (float64, error) {
	if err := c.waitForToken(ctx); err != nil {
		return 0, err
	}

	var out indexPriceResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/public/get_index_price",
		QueryParams: map[string]string{"index_name": indexName},
	}, &out)
	if err != nil {
		return 0, fmt.Errorf("deribit index price: %w", err)
	}
	if out.Result.IndexPrice <= 0 {
		return 0, fmt.Errorf("deribit index price: non-positive price %v", out.Result.IndexPrice)
	}
	return out.Result.IndexPrice, nil
}

type bookSummaryResponse struct {
	Result []models.OptionQuote `json:"result"`
}

// OptionBook fetches the book summary snapshot for every option
// instrument of the given currency.
func (c *Client) OptionBook(ctx context.Context, currency string) ([]models.OptionQuote, error) {
	if err := c.waitForToken(ctx); err != nil {
		return nil, err
	}

	var out bookSummaryResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/public/get_book_summary_by_currency",
		QueryParams: map[string]string{
			"currency": currency,
			"kind":     "option",
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("deribit option book: %w", err)
	}
	return out.Result, nil
}

// waitForToken blocks until the rate limiter admits a request or the
// context is cancelled.
func (c *Client) waitForToken(ctx context.Context) error {
	if c.rateLimit <= 0 {
		return nil
	}
	for !c.limiter.Allow(limiterKey, c.rateLimit, c.rateLimit) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

var _ drepo.MarketData = (*Client)(nil)
