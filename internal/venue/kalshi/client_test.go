package kalshi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetchActiveMarkets_ConvertsCentsToDecimal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"markets":[{
			"ticker": "KXWEATHER-24",
			"title": "Will it rain?",
			"status": "active",
			"yes_bid": 62,
			"yes_ask": 65,
			"no_bid": 35,
			"no_ask": 38
		}]}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, zap.NewNop())
	markets, err := c.fetchActiveMarkets(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "0.62", markets[0].BestBidYes.String())
	assert.Equal(t, "0.65", markets[0].BestAskYes.String())
}

func TestFetchOrderBook_ConvertsNoBookToYesAsks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"orderbook":{"yes":[[60,100]],"no":[[38,50]]}}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, zap.NewNop())
	book, _, err := c.fetchOrderBook(t.Context(), "KXWEATHER-24")
	require.NoError(t, err)
	require.NotNil(t, book)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, "0.62", book.Asks[0].Price.String())
}
