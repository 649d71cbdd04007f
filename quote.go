// Copyright (c) 2025 Neomantra Corp

package nfcast

import "time"

///////////////////////////////////////////////////////////////////////////////

// DepthLevel is one price level of a market picture, paise-scaled.
type DepthLevel struct {
	Price    int64 `json:"price"`  // price in paise
	Quantity int64 `json:"qty"`    // total quantity at this level
	Orders   int64 `json:"orders"` // number of orders at this level
}

// DepthRecord is a fully reconstructed per-instrument market picture,
// still paise-scaled.  Datagram-scoped temporary.
type DepthRecord struct {
	Token     uint32
	Timestamp time.Time // header wall time + system date

	Open      int64 // paise
	High      int64
	Low       int64
	Close     int64 // the last traded price
	PrevClose int64

	Volume    int64
	NumTrades int64

	// Auxiliary scalars carried only by the compressed variant.
	IndicativePrice int64
	IndicativeQty   int64
	TotalBidQty     int64
	TotalOfferQty   int64
	LowerCircuit    int64
	UpperCircuit    int64
	WeightedAverage int64

	BidLevels []DepthLevel // best-first, prices non-increasing
	AskLevels []DepthLevel // best-first, prices non-decreasing
}

///////////////////////////////////////////////////////////////////////////////

// QuoteLevel is one persisted price level, rupee-scaled.
type QuoteLevel struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"qty"`
	Orders   int64   `json:"orders"`
}

// Quote is the normalized, persistence-ready form of a market picture.
// All prices are rupees.
// {"token":873870,"symbol":"SENSEX","symbol_name":"SENSEX27NOV2025_84100CE",...}
type Quote struct {
	Token      uint32  `json:"token"`
	Symbol     string  `json:"symbol"`      // base symbol, "UNKNOWN" on master miss
	SymbolName string  `json:"symbol_name"` // e.g. SENSEX27NOV2025_84100CE, "" when unknown
	Expiry     string  `json:"expiry"`      // DD-MMM-YYYY as carried by the master
	OptionType string  `json:"option_type"` // CE, PE, or "" for futures
	Strike     float64 `json:"strike"`

	Timestamp string `json:"timestamp"` // YYYY-MM-DD HH:MM:SS.mmm

	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	LTP       float64 `json:"ltp"`
	Volume    int64   `json:"volume"`
	PrevClose float64 `json:"prev_close"`

	BidLevels []QuoteLevel `json:"bid_levels"`
	AskLevels []QuoteLevel `json:"ask_levels"`
}
