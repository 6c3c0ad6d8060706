package websocket

// OrderbookMessage is the raw wire format of a Polymarket CLOB market-channel
// message. Prices and sizes arrive as decimal strings, not numbers.
type OrderbookMessage struct {
	EventType string       `json:"event_type"`
	Market    string       `json:"market"`
	AssetID   string       `json:"asset_id"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
}

// PriceLevel is a single wire-format price/size pair.
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}
