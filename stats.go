// Copyright (c) 2025 Neomantra Corp

package nfcast

import "log/slog"

// Stats is the pipeline's per-run counter block.  The pipeline is
// single-threaded, so plain fields suffice; share one Stats across the
// stages to get a coherent snapshot.
type Stats struct {
	Datagrams       uint64 // datagrams observed
	HeadersAccepted uint64

	DroppedShort      uint64 // shorter than the fixed header
	DroppedBadLeading uint64 // bytes 0..3 not zero
	DroppedBadLength  uint64 // format id vs length mismatch or unknown format
	DroppedBadType    uint64 // message type not 2020/2021
	BadTimestamps     uint64 // wall-clock fallback used

	RecordsEmitted uint64 // non-empty record slots
	RecordsEmpty   uint64 // token 0/1 slots skipped

	DecompressOverruns uint64

	QuotesEmitted uint64
	QuotesDropped uint64 // ltp/volume validation failures
	UnknownTokens uint64 // distinct tokens missing from the master

	WriteErrors   uint64
	PublishErrors uint64
}

// LogSnapshot emits the counters at info level.
func (s *Stats) LogSnapshot(logger *slog.Logger, msg string) {
	logger.Info(msg,
		"datagrams", s.Datagrams,
		"headers_accepted", s.HeadersAccepted,
		"dropped_short", s.DroppedShort,
		"dropped_bad_leading", s.DroppedBadLeading,
		"dropped_bad_length", s.DroppedBadLength,
		"dropped_bad_type", s.DroppedBadType,
		"bad_timestamps", s.BadTimestamps,
		"records_emitted", s.RecordsEmitted,
		"records_empty", s.RecordsEmpty,
		"decompress_overruns", s.DecompressOverruns,
		"quotes_emitted", s.QuotesEmitted,
		"quotes_dropped", s.QuotesDropped,
		"unknown_tokens", s.UnknownTokens,
		"write_errors", s.WriteErrors,
		"publish_errors", s.PublishErrors,
	)
}
