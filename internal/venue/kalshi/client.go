package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var centDivisor = decimal.NewFromInt(100)

type client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func newClient(baseURL string, logger *zap.Logger) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func centsToDecimal(cents int) decimal.Decimal {
	return decimal.NewFromInt(int64(cents)).Div(centDivisor)
}

func (c *client) fetchActiveMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	endpoint := fmt.Sprintf("%s/markets?status=open&limit=%d", c.baseURL, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, types.NewVenueError(types.VenueKalshi, "fetch_active_markets", types.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, types.NewVenueError(types.VenueKalshi, "fetch_active_markets", types.ErrRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewVenueError(types.VenueKalshi, "fetch_active_markets", types.ErrTransient, fmt.Errorf("status %d", resp.StatusCode))
	}

	var raw marketsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, types.NewVenueError(types.VenueKalshi, "fetch_active_markets", types.ErrSchema, err)
	}

	markets := make([]types.Market, 0, len(raw.Markets))
	for _, km := range raw.Markets {
		markets = append(markets, normalizeMarket(km))
	}
	return markets, nil
}

func normalizeMarket(km kalshiMarket) types.Market {
	status := types.MarketActive
	if km.Status != "active" {
		status = types.MarketClosed
	}

	var endDate *time.Time
	if !km.CloseTime.IsZero() {
		e := km.CloseTime
		endDate = &e
	}

	bestBid := centsToDecimal(km.YesBid)
	bestAsk := centsToDecimal(km.YesAsk)

	return types.Market{
		Venue:            types.VenueKalshi,
		ExternalID:       km.Ticker,
		Question:         km.Title,
		Description:      km.SubtitleText,
		Category:         km.Category,
		Outcomes:         []string{"YES", "NO"},
		EndDate:          endDate,
		ResolutionRules:  km.RulesPrimary,
		TickSize:         decimal.NewFromFloat(0.01),
		MinimumOrderSize: decimal.NewFromInt(1),
		SourceURL:        fmt.Sprintf("https://kalshi.com/markets/%s", km.Ticker),
		Status:           status,
		BestBidYes:       bestBid,
		BestAskYes:       bestAsk,
		LastFetchedAt:    time.Now(),
	}
}

// fetchOrderBook converts Kalshi's separate YES/NO books into a single
// YES-denominated book: a NO bid of p is economically a YES ask of 100-p,
// and a NO ask of p is a YES bid of 100-p.
func (c *client) fetchOrderBook(ctx context.Context, ticker string) (*types.OrderBook, int64, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/markets/%s/orderbook", c.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, types.NewVenueError(types.VenueKalshi, "fetch_order_book", types.ErrTransient, err)
	}
	defer resp.Body.Close()

	latencyMs := time.Since(start).Milliseconds()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, latencyMs, types.NewVenueError(types.VenueKalshi, "fetch_order_book", types.ErrRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, latencyMs, types.NewVenueError(types.VenueKalshi, "fetch_order_book", types.ErrTransient, fmt.Errorf("status %d", resp.StatusCode))
	}

	var raw orderbookResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, latencyMs, types.NewVenueError(types.VenueKalshi, "fetch_order_book", types.ErrSchema, err)
	}

	bids := make([]types.Level, 0, len(raw.Orderbook.Yes))
	for _, lvl := range raw.Orderbook.Yes {
		bids = append(bids, types.Level{Price: centsToDecimal(lvl[0]), Size: decimal.NewFromInt(int64(lvl[1]))})
	}

	asks := make([]types.Level, 0, len(raw.Orderbook.No))
	for _, lvl := range raw.Orderbook.No {
		yesEquivalentPrice := decimal.NewFromInt(100).Sub(decimal.NewFromInt(int64(lvl[0]))).Div(centDivisor)
		asks = append(asks, types.Level{Price: yesEquivalentPrice, Size: decimal.NewFromInt(int64(lvl[1]))})
	}

	book, _ := types.NewOrderBook(types.VenueKalshi, ticker, bids, asks, time.Now(), latencyMs)
	if book == nil {
		return nil, latencyMs, types.NewVenueError(types.VenueKalshi, "fetch_order_book", types.ErrIntegrity, fmt.Errorf("crossed or empty book"))
	}

	return book, latencyMs, nil
}

func (c *client) fetchQuote(ctx context.Context, ticker string) (*types.Quote, int64, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/markets/%s", c.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, types.NewVenueError(types.VenueKalshi, "fetch_quote", types.ErrTransient, err)
	}
	defer resp.Body.Close()

	latencyMs := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, latencyMs, types.NewVenueError(types.VenueKalshi, "fetch_quote", types.ErrTransient, fmt.Errorf("status %d", resp.StatusCode))
	}

	var raw struct {
		Market kalshiMarket `json:"market"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, latencyMs, types.NewVenueError(types.VenueKalshi, "fetch_quote", types.ErrSchema, err)
	}

	return &types.Quote{
		Venue:      types.VenueKalshi,
		ExternalID: ticker,
		BestBid:    centsToDecimal(raw.Market.YesBid),
		BestAsk:    centsToDecimal(raw.Market.YesAsk),
		LastTrade:  centsToDecimal(raw.Market.LastPrice),
		Volume24h:  decimal.NewFromInt(int64(raw.Market.Volume24h)),
		Timestamp:  time.Now(),
		LatencyMs:  latencyMs,
	}, latencyMs, nil
}
