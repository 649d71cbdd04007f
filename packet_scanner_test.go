package nfcast_test

import (
	"bytes"

	nfcast "github.com/NimbleMarkets/nfcast-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PacketScanner", func() {
	It("should scan concatenated datagrams using the format id as framing", func() {
		slot := buildRecordSlot(recordFields{Token: 873870, LTQ: 20, LTP: 120775}, nil)
		big := buildDatagram(2020, 10, 30, 15, slot, slot)
		small := buildDatagram(2020, 10, 30, 16, slot)

		var capture bytes.Buffer
		capture.Write(big)
		capture.Write(small)
		capture.Write(big)

		scanner := nfcast.NewPacketScanner(&capture)
		var sizes []int
		for scanner.Next() {
			sizes = append(sizes, scanner.GetLastSize())
		}
		Expect(sizes).To(Equal([]int{564, 300, 564}))
	})

	It("should stop on corrupt framing", func() {
		scanner := nfcast.NewPacketScanner(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
		Expect(scanner.Next()).To(BeFalse())
		Expect(scanner.Error()).To(MatchError(nfcast.ErrMalformedCapture))
	})

	It("should decode a whole capture stream", func() {
		slot := buildRecordSlot(recordFields{Token: 873870, LTQ: 20, LTP: 120775}, nil)
		empty := buildRecordSlot(recordFields{Token: 1}, nil)
		datagram := buildDatagram(2020, 10, 30, 15, slot, empty)

		var capture bytes.Buffer
		capture.Write(datagram)
		capture.Write(datagram)

		decoder := nfcast.NewDecoder(nfcast.DecoderOptions{})
		packets, err := nfcast.ScanPacketsToSlice(&capture, decoder)
		Expect(err).To(BeNil())
		Expect(packets).To(HaveLen(2))
		Expect(packets[0].NonEmptyRecords()).To(HaveLen(1))
		Expect(decoder.Stats().Datagrams).To(Equal(uint64(2)))
	})
})
