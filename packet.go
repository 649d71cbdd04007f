// Copyright (c) 2025 Neomantra Corp
//
// Datagram layout, canonical 564-byte Market Picture:
//
//	bytes 0..3    always zero
//	bytes 4..5    format id == datagram length (LE)
//	bytes 8..9    message type, 2020 or 2021 (LE)
//	bytes 20..25  hour, minute, second (LE uint16 each)
//	bytes 26..35  reserved
//	then (format_id-36)/264 record slots of 264 bytes
//
// The observed wire format diverges from the published specification.
// The ltq offset (Record_LTQOffset) is inferred from the record bytes
// left unclaimed between volume and ltp, not from captured datagrams.

package nfcast

import (
	"encoding/binary"
	"log/slog"
	"time"
)

///////////////////////////////////////////////////////////////////////////////

// PacketHeader is the parsed 36-byte datagram header.
type PacketHeader struct {
	FormatID    uint16      `json:"format_id"`
	MessageType MessageType `json:"message_type"`
	Hour        uint16      `json:"hour"`
	Minute      uint16      `json:"minute"`
	Second      uint16      `json:"second"`
	Timestamp   time.Time   `json:"-"`           // wall time combined with system date
	ClockValid  bool        `json:"clock_valid"` // false when H/M/S was out of range
}

// Fill_Raw parses the fixed header fields from b.
// Length and message-type acceptance are the Decoder's concern.
func (h *PacketHeader) Fill_Raw(b []byte) error {
	if len(b) < PacketHeader_Size {
		return unexpectedBytesError(len(b), PacketHeader_Size)
	}
	if binary.LittleEndian.Uint32(b[0:4]) != 0 {
		return ErrBadLeadingBytes
	}
	h.FormatID = binary.LittleEndian.Uint16(b[4:6])
	h.MessageType = MessageType(binary.LittleEndian.Uint16(b[8:10]))
	h.Hour = binary.LittleEndian.Uint16(b[20:22])
	h.Minute = binary.LittleEndian.Uint16(b[22:24])
	h.Second = binary.LittleEndian.Uint16(b[24:26])
	return nil
}

// clockInRange reports whether the header wall time is a valid time of day.
func (h *PacketHeader) clockInRange() bool {
	return h.Hour < 24 && h.Minute < 60 && h.Second < 60
}

///////////////////////////////////////////////////////////////////////////////

// RawRecord is one record slot with its uncompressed base fields and a
// cursor into the compressed region.  Datagram-scoped temporary.
type RawRecord struct {
	Token     uint32
	PrevClose int32 // paise
	OpenHint  int32 // resolved OHLC in the uncompressed variant
	HighHint  int32
	LowHint   int32
	NumTrades uint32
	Volume    uint32
	LTQ       uint64 // quantity base for differential decoding
	LTP       int32  // paise; rate base for differential decoding

	Empty      bool // token marked the slot as carrying no instrument
	Compressed bool // OHLC and depth must be reconstructed differentially

	Block  []byte // the full record slot, aliasing the datagram
	Cursor int    // offset of the compressed region within Block
}

// Fill_Raw parses the little-endian record prefix from the record slot b.
func (r *RawRecord) Fill_Raw(b []byte, compressed bool) error {
	if len(b) < Record_Stride {
		return unexpectedBytesError(len(b), Record_Stride)
	}
	r.Token = binary.LittleEndian.Uint32(b[Record_TokenOffset : Record_TokenOffset+4])
	r.PrevClose = int32(binary.LittleEndian.Uint32(b[Record_PrevCloseOffset : Record_PrevCloseOffset+4]))
	r.OpenHint = int32(binary.LittleEndian.Uint32(b[Record_OpenHintOffset : Record_OpenHintOffset+4]))
	r.HighHint = int32(binary.LittleEndian.Uint32(b[Record_HighHintOffset : Record_HighHintOffset+4]))
	r.LowHint = int32(binary.LittleEndian.Uint32(b[Record_LowHintOffset : Record_LowHintOffset+4]))
	r.NumTrades = binary.LittleEndian.Uint32(b[Record_NumTradesOffset : Record_NumTradesOffset+4])
	r.Volume = binary.LittleEndian.Uint32(b[Record_VolumeOffset : Record_VolumeOffset+4])
	r.LTQ = binary.LittleEndian.Uint64(b[Record_LTQOffset : Record_LTQOffset+8])
	r.LTP = int32(binary.LittleEndian.Uint32(b[Record_LTPOffset : Record_LTPOffset+4]))
	r.Empty = r.Token < MinInstrumentToken
	r.Compressed = compressed
	r.Block = b[:Record_Stride]
	r.Cursor = Record_CursorOffset
	return nil
}

///////////////////////////////////////////////////////////////////////////////

// Packet is a fully parsed datagram: header plus its record slots,
// empty slots included (marked, so callers can count them).
type Packet struct {
	Header  PacketHeader
	Records []RawRecord
}

// NonEmptyRecords returns the records that carry instrument data.
func (p *Packet) NonEmptyRecords() []RawRecord {
	recs := make([]RawRecord, 0, len(p.Records))
	for _, r := range p.Records {
		if !r.Empty {
			recs = append(recs, r)
		}
	}
	return recs
}

///////////////////////////////////////////////////////////////////////////////

// DecoderOptions configures a Decoder.
type DecoderOptions struct {
	Logger       *slog.Logger     // nil means slog.Default()
	Stats        *Stats           // nil allocates a private Stats
	AcceptLegacy bool             // also accept 300-byte legacy datagrams
	NowFunc      func() time.Time // nil means time.Now, tests override
}

// Decoder parses datagrams into Packets, keeping per-run counters.
type Decoder struct {
	logger       *slog.Logger
	stats        *Stats
	acceptLegacy bool
	nowFunc      func() time.Time
}

// NewDecoder creates a Decoder from opts.
func NewDecoder(opts DecoderOptions) *Decoder {
	d := &Decoder{
		logger:       opts.Logger,
		stats:        opts.Stats,
		acceptLegacy: opts.AcceptLegacy,
		nowFunc:      opts.NowFunc,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.stats == nil {
		d.stats = &Stats{}
	}
	if d.nowFunc == nil {
		d.nowFunc = time.Now
	}
	return d
}

// Stats returns the Decoder's counter block.
func (d *Decoder) Stats() *Stats {
	return d.stats
}

// DecodePacket parses one datagram.  A rejected datagram returns a nil
// Packet and the rejection reason; rejections are counted, never fatal.
// Record slices alias b, which must stay untouched until the Packet is
// consumed.
func (d *Decoder) DecodePacket(b []byte) (*Packet, error) {
	d.stats.Datagrams++

	if len(b) < PacketHeader_Size {
		d.stats.DroppedShort++
		return nil, ErrShortDatagram
	}

	var pkt Packet
	if err := pkt.Header.Fill_Raw(b); err != nil {
		d.stats.DroppedBadLeading++
		return nil, err
	}

	hdr := &pkt.Header
	if int(hdr.FormatID) != len(b) {
		d.stats.DroppedBadLength++
		return nil, ErrLengthMismatch
	}
	if !d.formatRecognized(hdr.FormatID) {
		d.stats.DroppedBadLength++
		return nil, ErrUnknownFormat
	}
	if !hdr.MessageType.IsSupported() {
		d.stats.DroppedBadType++
		return nil, ErrUnsupportedMsgType
	}

	now := d.nowFunc()
	if hdr.clockInRange() {
		hdr.Timestamp = HeaderTime(now, int(hdr.Hour), int(hdr.Minute), int(hdr.Second))
		hdr.ClockValid = true
	} else {
		d.stats.BadTimestamps++
		d.logger.Warn("bad header timestamp, using wall clock",
			"hour", hdr.Hour, "minute", hdr.Minute, "second", hdr.Second)
		hdr.Timestamp = now
		hdr.ClockValid = false
	}
	d.stats.HeadersAccepted++

	// The canonical format carries resolved OHLC; everything else is
	// reconstructed differentially from the cursor.
	compressed := hdr.FormatID != FormatID_Canonical

	numRecords := (int(hdr.FormatID) - PacketHeader_Size) / Record_Stride
	pkt.Records = make([]RawRecord, 0, numRecords)
	for i := 0; i < numRecords; i++ {
		offset := PacketHeader_Size + i*Record_Stride
		var rec RawRecord
		if err := rec.Fill_Raw(b[offset:offset+Record_Stride], compressed); err != nil {
			return nil, err
		}
		if rec.Empty {
			d.stats.RecordsEmpty++
		} else {
			d.stats.RecordsEmitted++
		}
		pkt.Records = append(pkt.Records, rec)
	}
	return &pkt, nil
}

// formatRecognized checks the format id against the accepted set.
// Both accepted ids divide into whole record slots.
func (d *Decoder) formatRecognized(formatID uint16) bool {
	switch formatID {
	case FormatID_Canonical:
		return true
	case FormatID_Legacy:
		return d.acceptLegacy
	}
	return false
}
