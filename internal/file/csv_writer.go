// Copyright (c) 2025 Neomantra Corp

package file

import (
	"strconv"
	"strings"
	"time"

	nfcast "github.com/NimbleMarkets/nfcast-go"
)

// CSVHeaderLine is the header row of the quote CSV files, fixing the
// column order.
const CSVHeaderLine = "token,symbol,symbol_name,expiry,option_type,strike," +
	"timestamp,open,high,low,close,ltp,volume,prev_close," +
	"bid_prices,bid_qtys,bid_orders,ask_prices,ask_qtys,ask_orders\n"

///////////////////////////////////////////////////////////////////////////////

// QuoteCSVWriter appends quotes to a daily-rotated "YYYYMMDD_quotes.csv"
// file.  The header row is written exactly once, at file creation; an
// appended-to file never gets a second header.
//
// Rows are formatted by hand rather than with encoding/csv: the output
// contract requires the timestamp cell to be the literal formula
// ="YYYY-MM-DD HH:MM:SS.mmm", which RFC-4180 escaping would mangle.
type QuoteCSVWriter struct {
	daily *dailyFile
}

// NewQuoteCSVWriter creates a writer rooted at dir.  nowFunc is the
// rotation clock; nil means time.Now.
func NewQuoteCSVWriter(dir string, nowFunc func() time.Time) *QuoteCSVWriter {
	return &QuoteCSVWriter{
		daily: newDailyFile(dir, "_quotes.csv", nowFunc),
	}
}

// Save appends one quote as a CSV row.
func (w *QuoteCSVWriter) Save(quote *nfcast.Quote) error {
	out, fresh, err := w.daily.ensure()
	if err != nil {
		return err
	}
	if fresh {
		if _, err := out.WriteString(CSVHeaderLine); err != nil {
			return err
		}
	}
	_, err = out.WriteString(QuoteCSVRow(quote))
	return err
}

// Close closes the current daily file.
func (w *QuoteCSVWriter) Close() error {
	return w.daily.Close()
}

///////////////////////////////////////////////////////////////////////////////

// QuoteCSVRow renders one quote as a CSV row, newline-terminated.
func QuoteCSVRow(q *nfcast.Quote) string {
	quoted := func(s string) string {
		if s == "" {
			return s
		}
		return `"` + s + `"`
	}
	bidPrices, bidQtys, bidOrders := flattenLevels(q.BidLevels)
	askPrices, askQtys, askOrders := flattenLevels(q.AskLevels)
	bidPrices, bidQtys, bidOrders = quoted(bidPrices), quoted(bidQtys), quoted(bidOrders)
	askPrices, askQtys, askOrders = quoted(askPrices), quoted(askQtys), quoted(askOrders)
	fields := []string{
		strconv.FormatUint(uint64(q.Token), 10),
		csvQuoted(q.Symbol),
		csvQuoted(q.SymbolName),
		csvQuoted(q.Expiry),
		csvQuoted(q.OptionType),
		formatRupees(q.Strike),
		// Literal formula cell, defeats spreadsheet date auto-formatting
		`="` + q.Timestamp + `"`,
		formatRupees(q.Open),
		formatRupees(q.High),
		formatRupees(q.Low),
		formatRupees(q.Close),
		formatRupees(q.LTP),
		strconv.FormatInt(q.Volume, 10),
		formatRupees(q.PrevClose),
		bidPrices, bidQtys, bidOrders,
		askPrices, askQtys, askOrders,
	}
	return strings.Join(fields, ",") + "\n"
}

// flattenLevels renders depth as comma-separated price/qty/order lists,
// empty strings when there is no depth.
func flattenLevels(levels []nfcast.QuoteLevel) (prices, qtys, orders string) {
	if len(levels) == 0 {
		return "", "", ""
	}
	var p, q, o []string
	for _, lvl := range levels {
		p = append(p, formatRupees(lvl.Price))
		q = append(q, strconv.FormatInt(lvl.Quantity, 10))
		o = append(o, strconv.FormatInt(lvl.Orders, 10))
	}
	return strings.Join(p, ","), strings.Join(q, ","), strings.Join(o, ",")
}

// csvQuoted applies RFC-4180 quoting when the value needs it.
func csvQuoted(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatRupees(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
