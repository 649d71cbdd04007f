// Copyright (c) 2025 Neomantra Corp

package file

import (
	"time"

	nfcast "github.com/NimbleMarkets/nfcast-go"
	"github.com/segmentio/encoding/json"
)

///////////////////////////////////////////////////////////////////////////////

// QuoteJSONWriter appends quotes to a daily-rotated "YYYYMMDD_quotes.json"
// file, one UTF-8 encoded object per line.
type QuoteJSONWriter struct {
	daily *dailyFile
}

// NewQuoteJSONWriter creates a writer rooted at dir.  nowFunc is the
// rotation clock; nil means time.Now.
func NewQuoteJSONWriter(dir string, nowFunc func() time.Time) *QuoteJSONWriter {
	return &QuoteJSONWriter{
		daily: newDailyFile(dir, "_quotes.json", nowFunc),
	}
}

// Save appends one quote as a JSON line.
func (w *QuoteJSONWriter) Save(quote *nfcast.Quote) error {
	out, _, err := w.daily.ensure()
	if err != nil {
		return err
	}
	line, err := json.Marshal(quote)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = out.Write(line)
	return err
}

// Close closes the current daily file.
func (w *QuoteJSONWriter) Close() error {
	return w.daily.Close()
}
