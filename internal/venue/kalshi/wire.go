package kalshi

import "time"

// kalshiMarket is the wire format of one element in Kalshi's
// GET /markets response. Prices are integer cents, not decimal dollars,
// and quoted on both the YES and the explicit NO side — Kalshi never
// requires deriving a NO price as 1-minus-YES (§9 open question (b)).
type kalshiMarket struct {
	Ticker         string    `json:"ticker"`
	Title          string    `json:"title"`
	SubtitleText   string    `json:"subtitle"`
	Category       string    `json:"category"`
	Status         string    `json:"status"` // "active", "closed", "settled"
	CloseTime      time.Time `json:"close_time"`
	RulesPrimary   string    `json:"rules_primary"`

	YesBid int `json:"yes_bid"`
	YesAsk int `json:"yes_ask"`
	NoBid  int `json:"no_bid"`
	NoAsk  int `json:"no_ask"`

	LastPrice int `json:"last_price"`
	Volume24h int `json:"volume_24h"`
}

type marketsResponse struct {
	Markets []kalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}

// orderbookResponse is the wire format of GET /markets/{ticker}/orderbook.
// Kalshi returns levels as [price_cents, size] pairs on the YES and NO
// books separately; the NO book is converted to YES-equivalent asks by the
// client, since 100-no_price == yes_price at every depth level.
type orderbookResponse struct {
	Orderbook struct {
		Yes [][2]int `json:"yes"`
		No  [][2]int `json:"no"`
	} `json:"orderbook"`
}
