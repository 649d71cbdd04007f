// Copyright (c) 2025 Neomantra Corp

package nfcast

import (
	"time"
)

// The denominator of wire prices: paise per rupee.
const PAISE_PER_RUPEE float64 = 100.0

// PaiseToRupees converts a wire price in paise to rupees.
func PaiseToRupees(paise int64) float64 {
	return float64(paise) / PAISE_PER_RUPEE
}

// Timestamp layout for persisted quotes.  The .000 fragment truncates to
// milliseconds rather than rounding into the next second.
const TimestampLayout = "2006-01-02 15:04:05.000"

// FormatTimestamp renders t as "YYYY-MM-DD HH:MM:SS.mmm".
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// HeaderTime combines the datagram's hour/minute/second with the system
// date and sub-second clock taken from now.
func HeaderTime(now time.Time, hour, minute, second int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(),
		hour, minute, second,
		now.Nanosecond(), now.Location())
}

// TimeToYMD returns the YYYYMMDD for the time.Time in that Time's location.
// A zero time returns a 0 value.
func TimeToYMD(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return uint32(10000*t.Year() + 100*int(t.Month()) + t.Day())
}
