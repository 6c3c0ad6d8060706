package polymarket

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetchActiveMarkets_NormalizesBinaryMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"id": "1",
			"question": "Will it rain tomorrow?",
			"slug": "will-it-rain-tomorrow",
			"category": "Weather",
			"closed": false,
			"active": true,
			"outcomes": "[\"Yes\",\"No\"]",
			"clobTokenIds": "[\"tok-yes\",\"tok-no\"]",
			"outcomePrices": "[\"0.63\",\"0.37\"]"
		}]`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, srv.URL, zap.NewNop())
	markets, err := c.fetchActiveMarkets(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "tok-yes", markets[0].ExternalID)
	assert.Equal(t, "0.63", markets[0].BestBidYes.String())
}

func TestFetchOrderBook_DropsCrossedBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bids":[{"price":"0.60","size":"10"}],"asks":[{"price":"0.55","size":"5"}]}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, srv.URL, zap.NewNop())
	book, _, err := c.fetchOrderBook(t.Context(), "tok-yes")
	assert.Nil(t, book)
	assert.Error(t, err)
}
