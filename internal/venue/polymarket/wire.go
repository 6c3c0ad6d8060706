package polymarket

import "time"

// gammaMarket is the wire format of a single element in the Gamma API's
// /markets response. Outcomes and CLOB token IDs arrive as JSON-encoded
// strings, not native arrays — a Gamma quirk kept intact from the source API.
type gammaMarket struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Closed        bool      `json:"closed"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	EndDate       time.Time `json:"endDate"`
	Outcomes      string    `json:"outcomes"`     // e.g. `["Yes","No"]`
	ClobTokenIDs  string    `json:"clobTokenIds"` // e.g. `["123...","456..."]`
	OutcomePrices string    `json:"outcomePrices"`
}

// clobBookResponse is the wire format returned by the CLOB REST /book endpoint.
type clobBookResponse struct {
	Market string          `json:"market"`
	AssetID string        `json:"asset_id"`
	Bids   []clobLevel     `json:"bids"`
	Asks   []clobLevel     `json:"asks"`
}

type clobLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// clobMidpointResponse is the wire format of the CLOB /midpoint endpoint,
// used for the lightweight per-token quote fetch.
type clobMidpointResponse struct {
	Mid string `json:"mid"`
}

// clobPriceResponse is the wire format of the CLOB /price endpoint.
type clobPriceResponse struct {
	Price string `json:"price"`
}
