// Copyright (c) 2025 Neomantra Corp

package nfcast

import (
	"bufio"
	"encoding/binary"
	"io"
)

///////////////////////////////////////////////////////////////////////////////

// Default buffer size for scanning capture streams
const DEFAULT_SCAN_BUFFER_SIZE = 16 * 1024

// Capture streams are raw NFCAST datagrams back to back; the format id
// in each header frames the stream.  Scratch must hold the largest one.
const MAX_PACKET_SIZE = 2 * 1024

// PacketScanner scans a raw capture stream of concatenated datagrams.
type PacketScanner struct {
	srcReader  io.Reader     // the source we pull data from
	buffReader *bufio.Reader // the buffer reader we scan over
	lastError  error         // the last error encountered
	lastPacket []byte        // last datagram read, waiting for decode
	lastSize   int           // the size of the last datagram read
}

// NewPacketScanner creates a new nfcast.PacketScanner.
func NewPacketScanner(sourceReader io.Reader) *PacketScanner {
	return &PacketScanner{
		srcReader:  sourceReader,
		buffReader: bufio.NewReaderSize(sourceReader, DEFAULT_SCAN_BUFFER_SIZE),
		lastError:  nil,
		lastPacket: make([]byte, MAX_PACKET_SIZE),
		lastSize:   0,
	}
}

// Error returns the last error from Next().  May be io.EOF.
func (s *PacketScanner) Error() error {
	return s.lastError
}

// GetLastPacket returns the raw bytes of the last datagram read.
func (s *PacketScanner) GetLastPacket() []byte {
	return s.lastPacket[:s.lastSize]
}

// GetLastSize returns the size of the last datagram read.
func (s *PacketScanner) GetLastSize() int {
	return s.lastSize
}

// Next reads the next datagram from the stream.
// The header's format id field is the datagram's total length, so the
// stream needs no extra framing.
func (s *PacketScanner) Next() bool {
	// Read the 6-byte prefix: four zero bytes then the format id
	numRead, err := io.ReadFull(s.buffReader, s.lastPacket[0:6])
	if err != nil {
		s.lastError = err
		s.lastSize = numRead
		return false
	}
	if binary.LittleEndian.Uint32(s.lastPacket[0:4]) != 0 {
		s.lastError = ErrMalformedCapture
		s.lastSize = 6
		return false
	}

	mustRead := int(binary.LittleEndian.Uint16(s.lastPacket[4:6]))
	if mustRead < PacketHeader_Size || mustRead > len(s.lastPacket) {
		s.lastError = ErrMalformedCapture
		s.lastSize = 6
		return false
	}

	// 6: because we already have the prefix
	numRead, err = io.ReadFull(s.buffReader, s.lastPacket[6:mustRead])
	if err != nil {
		s.lastError = err
		s.lastSize = numRead + 6
		return false
	}
	s.lastError = nil
	s.lastSize = mustRead
	return true
}

/////////////////////////////////////////////////////////////////////////////

// ScanPacketsToSlice reads an entire capture stream, decoding every
// datagram with the given Decoder.  Rejected datagrams are skipped and
// counted by the Decoder.  EOF is not propagated as an error.
func ScanPacketsToSlice(reader io.Reader, decoder *Decoder) ([]*Packet, error) {
	packets := make([]*Packet, 0)
	scanner := NewPacketScanner(reader)
	for scanner.Next() {
		// Packet records alias the datagram, so each one gets its own copy
		raw := make([]byte, scanner.GetLastSize())
		copy(raw, scanner.GetLastPacket())
		pkt, err := decoder.DecodePacket(raw)
		if err != nil {
			continue
		}
		packets = append(packets, pkt)
	}
	err := scanner.Error()
	if err == io.EOF {
		err = nil
	}
	return packets, err
}
