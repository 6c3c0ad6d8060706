package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// client is a thin HTTP client over the Gamma discovery API and the CLOB
// trading API. ExternalID throughout this package is the YES-outcome CLOB
// token ID — the same key the push channel and REST book/price endpoints
// use, so a market's identity never has to be translated between surfaces.
type client struct {
	gammaBaseURL string
	clobBaseURL  string
	http         *http.Client
	logger       *zap.Logger
}

func newClient(gammaBaseURL, clobBaseURL string, logger *zap.Logger) *client {
	return &client{
		gammaBaseURL: gammaBaseURL,
		clobBaseURL:  clobBaseURL,
		http:         &http.Client{Timeout: 15 * time.Second},
		logger:       logger,
	}
}

func (c *client) fetchActiveMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	endpoint := fmt.Sprintf("%s/markets", c.gammaBaseURL)

	params := url.Values{}
	params.Add("closed", "false")
	params.Add("active", "true")
	params.Add("limit", strconv.Itoa(limit))
	params.Add("order", "volume24hr")
	params.Add("ascending", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "arbengine/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, types.NewVenueError(types.VenuePolymarket, "fetch_active_markets", types.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, types.NewVenueError(types.VenuePolymarket, "fetch_active_markets", types.ErrRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, types.NewVenueError(types.VenuePolymarket, "fetch_active_markets", types.ErrTransient, fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var raw []gammaMarket
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, types.NewVenueError(types.VenuePolymarket, "fetch_active_markets", types.ErrSchema, err)
	}

	markets := make([]types.Market, 0, len(raw))
	for _, gm := range raw {
		m, ok := normalizeMarket(gm)
		if !ok {
			continue
		}
		markets = append(markets, m)
	}

	return markets, nil
}

// normalizeMarket decodes Gamma's JSON-string-encoded outcomes/token arrays
// and drops markets that aren't binary YES/NO — multi-outcome markets are
// out of scope for cross-venue matching against Kalshi's binary contracts.
func normalizeMarket(gm gammaMarket) (types.Market, bool) {
	var outcomes []string
	var tokenIDs []string
	var prices []string

	if err := json.Unmarshal([]byte(gm.Outcomes), &outcomes); err != nil {
		return types.Market{}, false
	}
	if err := json.Unmarshal([]byte(gm.ClobTokenIDs), &tokenIDs); err != nil {
		return types.Market{}, false
	}
	_ = json.Unmarshal([]byte(gm.OutcomePrices), &prices)

	if len(outcomes) != 2 || len(tokenIDs) != 2 {
		return types.Market{}, false
	}

	yesIdx := 0
	if outcomes[1] == "Yes" || outcomes[1] == "YES" {
		yesIdx = 1
	}

	bestBidYes := decimal.Zero
	if yesIdx < len(prices) {
		if p, err := decimal.NewFromString(prices[yesIdx]); err == nil {
			bestBidYes = p
		}
	}

	status := types.MarketActive
	if gm.Closed {
		status = types.MarketClosed
	}

	var endDate *time.Time
	if !gm.EndDate.IsZero() {
		e := gm.EndDate
		endDate = &e
	}

	return types.Market{
		Venue:         types.VenuePolymarket,
		ExternalID:    tokenIDs[yesIdx],
		Question:      gm.Question,
		Description:   gm.Description,
		Category:      gm.Category,
		Outcomes:      []string{"YES", "NO"},
		EndDate:       endDate,
		SourceURL:     fmt.Sprintf("https://polymarket.com/event/%s", gm.Slug),
		Status:        status,
		BestBidYes:    bestBidYes,
		TickSize:      decimal.NewFromFloat(0.01),
		LastFetchedAt: time.Now(),
	}, true
}

func (c *client) fetchOrderBook(ctx context.Context, tokenID string) (*types.OrderBook, int64, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/book?token_id=%s", c.clobBaseURL, url.QueryEscape(tokenID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, types.NewVenueError(types.VenuePolymarket, "fetch_order_book", types.ErrTransient, err)
	}
	defer resp.Body.Close()

	latencyMs := time.Since(start).Milliseconds()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, latencyMs, types.NewVenueError(types.VenuePolymarket, "fetch_order_book", types.ErrRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, latencyMs, types.NewVenueError(types.VenuePolymarket, "fetch_order_book", types.ErrTransient, fmt.Errorf("status %d", resp.StatusCode))
	}

	var raw clobBookResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, latencyMs, types.NewVenueError(types.VenuePolymarket, "fetch_order_book", types.ErrSchema, err)
	}

	bids := parseLevels(raw.Bids)
	asks := parseLevels(raw.Asks)

	book, _ := types.NewOrderBook(types.VenuePolymarket, tokenID, bids, asks, time.Now(), latencyMs)
	if book == nil {
		return nil, latencyMs, types.NewVenueError(types.VenuePolymarket, "fetch_order_book", types.ErrIntegrity, fmt.Errorf("crossed or empty book"))
	}

	return book, latencyMs, nil
}

func parseLevels(raw []clobLevel) []types.Level {
	levels := make([]types.Level, 0, len(raw))
	for _, lvl := range raw {
		price, err := decimal.NewFromString(lvl.Price)
		if err != nil {
			continue
		}
		size, err := decimal.NewFromString(lvl.Size)
		if err != nil {
			continue
		}
		levels = append(levels, types.Level{Price: price, Size: size})
	}
	return levels
}

func (c *client) fetchQuote(ctx context.Context, tokenID string) (*types.Quote, int64, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/midpoint?token_id=%s", c.clobBaseURL, url.QueryEscape(tokenID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, types.NewVenueError(types.VenuePolymarket, "fetch_quote", types.ErrTransient, err)
	}
	defer resp.Body.Close()

	latencyMs := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, latencyMs, types.NewVenueError(types.VenuePolymarket, "fetch_quote", types.ErrTransient, fmt.Errorf("status %d", resp.StatusCode))
	}

	var raw clobMidpointResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, latencyMs, types.NewVenueError(types.VenuePolymarket, "fetch_quote", types.ErrSchema, err)
	}

	mid, err := decimal.NewFromString(raw.Mid)
	if err != nil {
		return nil, latencyMs, types.NewVenueError(types.VenuePolymarket, "fetch_quote", types.ErrSchema, err)
	}

	return &types.Quote{
		Venue:      types.VenuePolymarket,
		ExternalID: tokenID,
		BestBid:    mid,
		BestAsk:    mid,
		Timestamp:  time.Now(),
		LatencyMs:  latencyMs,
	}, latencyMs, nil
}
