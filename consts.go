// Copyright (c) 2025 Neomantra Corp
//
// BSE Direct NFCAST low-bandwidth feed constants.
//
// The wire format mixes byte orders: the 36-byte packet header and the
// fixed record prefix are little-endian, while the compressed region of
// each record is big-endian.  See packet.go and decompress.go.

package nfcast

// Packet geometry.  A datagram is a 36-byte header followed by
// (FormatID-36)/Record_Stride record slots of Record_Stride bytes each.
// FormatID doubles as the datagram's total byte length on this feed.
const (
	PacketHeader_Size = 36
	Record_Stride     = 264

	FormatID_Canonical uint16 = 564 // 0x0234 production datagram, 2 slots
	// The exchange's format document prints the legacy id as 0x0124,
	// but the id equals the datagram length and legacy datagrams are
	// 300 bytes.
	FormatID_Legacy uint16 = 300 // 1 slot
)

// MessageType selects the record flavor carried by a datagram.
type MessageType uint16

const (
	// Market Picture with 4-byte instrument codes.
	MessageType_MarketPicture MessageType = 2020
	// Complex Market Picture with 8-byte instrument codes.
	MessageType_ComplexMarketPicture MessageType = 2021
)

// IsSupported returns true for the message types this library decodes.
func (mt MessageType) IsSupported() bool {
	return mt == MessageType_MarketPicture || mt == MessageType_ComplexMarketPicture
}

func (mt MessageType) String() string {
	switch mt {
	case MessageType_MarketPicture:
		return "market_picture"
	case MessageType_ComplexMarketPicture:
		return "complex_market_picture"
	default:
		return "unknown"
	}
}

// Differential decoding sentinels, read as big-endian int16 from the
// compressed region.
const (
	// Next four bytes carry the absolute value (big-endian int32).
	Diff_EscapeFull int16 = 32767
	// No further bid levels.
	Diff_TerminatorBid int16 = 32766
	// No further ask levels.
	Diff_TerminatorAsk int16 = -32766
)

// Byte offsets of the little-endian fields within a record slot.
// The compressed region begins at Record_CursorOffset.
const (
	Record_TokenOffset     = 0
	Record_PrevCloseOffset = 4
	Record_OpenHintOffset  = 8
	Record_HighHintOffset  = 12
	Record_LowHintOffset   = 16
	Record_NumTradesOffset = 20
	Record_VolumeOffset    = 24
	Record_LTQOffset       = 28
	Record_LTPOffset       = 36
	Record_CursorOffset    = 40
)

// Best-5 market picture: at most five price levels per side.
const MaxDepthLevels = 5

// Tokens below this value mark empty record slots.
const MinInstrumentToken uint32 = 2

// Contract option types as carried by the contract master.
const (
	OptionType_Call = "CE"
	OptionType_Put  = "PE"
)

///////////////////////////////////////////////////////////////////////////////

// Stream describes a well-known NFCAST multicast endpoint.
type Stream struct {
	Name  string // short name referenced by config
	Group string // multicast group address
	Port  int    // UDP port
}

// Streams lists the published Direct NFCAST low-bandwidth endpoints for the
// equity-derivatives segment.
var Streams = []Stream{
	{Name: "eqd-lbw-1", Group: "227.0.0.21", Port: 12996},
	{Name: "eqd-lbw-2", Group: "227.0.0.22", Port: 12997},
	{Name: "eqd-nfcast", Group: "226.1.0.1", Port: 11401},
}

// FindStream returns the Stream with the given name, or nil.
func FindStream(name string) *Stream {
	for i := range Streams {
		if Streams[i].Name == name {
			return &Streams[i]
		}
	}
	return nil
}
