// Copyright (c) 2025 Neomantra Corp

package file

import (
	"log/slog"
	"time"

	nfcast "github.com/NimbleMarkets/nfcast-go"
)

///////////////////////////////////////////////////////////////////////////////

// QuoteSink fans each quote out to the daily JSON and CSV writers.
// A write failure on one file is logged and counted but never stops the
// other writer or the pipeline.
type QuoteSink struct {
	json   *QuoteJSONWriter
	csv    *QuoteCSVWriter
	logger *slog.Logger
	stats  *nfcast.Stats
}

// NewQuoteSink creates a sink writing JSON under jsonDir and CSV under
// csvDir.  nowFunc drives daily rotation; nil means time.Now.
func NewQuoteSink(jsonDir, csvDir string, logger *slog.Logger, stats *nfcast.Stats, nowFunc func() time.Time) *QuoteSink {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = &nfcast.Stats{}
	}
	return &QuoteSink{
		json:   NewQuoteJSONWriter(jsonDir, nowFunc),
		csv:    NewQuoteCSVWriter(csvDir, nowFunc),
		logger: logger,
		stats:  stats,
	}
}

// Save persists one quote to both files.
func (s *QuoteSink) Save(quote *nfcast.Quote) {
	if err := s.json.Save(quote); err != nil {
		s.stats.WriteErrors++
		s.logger.Error("json write failed", "token", quote.Token, "error", err.Error())
	}
	if err := s.csv.Save(quote); err != nil {
		s.stats.WriteErrors++
		s.logger.Error("csv write failed", "token", quote.Token, "error", err.Error())
	}
}

// Close closes both daily files.
func (s *QuoteSink) Close() {
	s.json.Close()
	s.csv.Close()
}
