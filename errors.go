// Copyright (c) 2025 Neomantra Corp

package nfcast

import "fmt"

var (
	ErrShortDatagram      = fmt.Errorf("datagram shorter than header")
	ErrBadLeadingBytes    = fmt.Errorf("bad leading bytes")
	ErrLengthMismatch     = fmt.Errorf("format id does not match datagram length")
	ErrUnknownFormat      = fmt.Errorf("unrecognized format id")
	ErrUnsupportedMsgType = fmt.Errorf("unsupported message type")
	ErrEmptyRecord        = fmt.Errorf("empty record slot")
	ErrDecompressOverrun  = fmt.Errorf("differential decode ran past record boundary")
	ErrNoPacket           = fmt.Errorf("no packet scanned")
	ErrMalformedCapture   = fmt.Errorf("malformed capture stream")
	ErrNoContractMaster   = fmt.Errorf("no contract master")
	ErrBadContractMaster  = fmt.Errorf("malformed contract master")
)

func unexpectedBytesError(got int, want int) error {
	return fmt.Errorf("expected %d bytes, got %d", want, got)
}
