// Copyright (c) 2025 Neomantra Corp

package nfcast

import (
	"log/slog"
	"strconv"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////

// Symbol emitted when a token is missing from the contract master.
const UnknownSymbol = "UNKNOWN"

// NormalizerOptions configures a Normalizer.
type NormalizerOptions struct {
	Logger *slog.Logger // nil means slog.Default()
	Stats  *Stats       // nil allocates a private Stats
}

// Normalizer joins DepthRecords with the contract master and emits
// validated, rupee-scaled Quotes.
type Normalizer struct {
	master *ContractMaster
	logger *slog.Logger
	stats  *Stats

	warnedTokens map[uint32]struct{} // unknown tokens already logged
}

// NewNormalizer creates a Normalizer over the given contract master.
func NewNormalizer(master *ContractMaster, opts NormalizerOptions) *Normalizer {
	n := &Normalizer{
		master:       master,
		logger:       opts.Logger,
		stats:        opts.Stats,
		warnedTokens: make(map[uint32]struct{}),
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	if n.stats == nil {
		n.stats = &Stats{}
	}
	return n
}

// Normalize converts one DepthRecord into a Quote.
// Returns (nil, false) when the record fails validation; the drop is
// counted.  Unknown tokens still emit, with Symbol set to UnknownSymbol.
func (n *Normalizer) Normalize(rec *DepthRecord) (*Quote, bool) {
	if rec.Close <= 0 || rec.Volume < 0 {
		n.stats.QuotesDropped++
		return nil, false
	}

	q := &Quote{
		Token:     rec.Token,
		Timestamp: FormatTimestamp(rec.Timestamp),
		Open:      PaiseToRupees(rec.Open),
		High:      PaiseToRupees(rec.High),
		Low:       PaiseToRupees(rec.Low),
		Close:     PaiseToRupees(rec.Close),
		LTP:       PaiseToRupees(rec.Close),
		Volume:    rec.Volume,
		PrevClose: PaiseToRupees(rec.PrevClose),
		BidLevels: normalizeLevels(rec.BidLevels),
		AskLevels: normalizeLevels(rec.AskLevels),
	}

	info, ok := n.master.Get(rec.Token)
	if !ok {
		q.Symbol = UnknownSymbol
		n.warnUnknown(rec.Token)
		n.stats.QuotesEmitted++
		return q, true
	}

	q.Symbol = info.Symbol
	q.Expiry = info.Expiry
	q.OptionType = info.OptionType
	q.Strike = info.Strike
	q.SymbolName = SymbolName(info)
	n.stats.QuotesEmitted++
	return q, true
}

// warnUnknown logs a missing token once per run.
func (n *Normalizer) warnUnknown(token uint32) {
	if _, seen := n.warnedTokens[token]; seen {
		return
	}
	n.warnedTokens[token] = struct{}{}
	n.stats.UnknownTokens++
	n.logger.Warn("token missing from contract master", "token", token)
}

// normalizeLevels converts depth to rupees, silently dropping levels
// with non-positive prices.
func normalizeLevels(levels []DepthLevel) []QuoteLevel {
	out := make([]QuoteLevel, 0, len(levels))
	for _, lvl := range levels {
		if lvl.Price <= 0 {
			continue
		}
		out = append(out, QuoteLevel{
			Price:    PaiseToRupees(lvl.Price),
			Quantity: lvl.Quantity,
			Orders:   lvl.Orders,
		})
	}
	return out
}

///////////////////////////////////////////////////////////////////////////////

// SymbolName builds the display symbol for a contract:
//
//	options: {SYMBOL}{DD}{MMM}{YYYY}_{STRIKE}{CE|PE}
//	futures: {SYMBOL}{DD}{MMM}{YYYY}_FUT
//
// The expiry fragment comes from the master's "DD-MMM-YYYY" string with
// the dashes removed and the month uppercased.
func SymbolName(info ContractInfo) string {
	if info.Symbol == "" {
		return ""
	}
	expiry := strings.ToUpper(strings.ReplaceAll(info.Expiry, "-", ""))
	if info.OptionType == "" {
		return info.Symbol + expiry + "_FUT"
	}
	strike := strconv.FormatFloat(info.Strike, 'f', -1, 64)
	return info.Symbol + expiry + "_" + strike + info.OptionType
}
