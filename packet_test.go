package nfcast_test

import (
	"encoding/binary"
	"time"

	nfcast "github.com/NimbleMarkets/nfcast-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Decoder", func() {
	var decoder *nfcast.Decoder
	var stats *nfcast.Stats

	fixedNow := time.Date(2025, time.November, 27, 10, 30, 0, 123_000_000, time.Local)

	BeforeEach(func() {
		stats = &nfcast.Stats{}
		decoder = nfcast.NewDecoder(nfcast.DecoderOptions{
			Stats:        stats,
			AcceptLegacy: true,
			NowFunc:      func() time.Time { return fixedNow },
		})
	})

	Context("canonical datagrams", func() {
		It("should decode a 564-byte market picture", func() {
			slot := buildRecordSlot(recordFields{
				Token: 873870, PrevClose: 119000, Open: 118000, High: 121000, Low: 117500,
				NumTrades: 12, Volume: 480, LTQ: 20, LTP: 120775,
			}, nil)
			empty := buildRecordSlot(recordFields{Token: 0}, nil)
			datagram := buildDatagram(2020, 10, 30, 15, slot, empty)
			Expect(len(datagram)).To(Equal(564))

			pkt, err := decoder.DecodePacket(datagram)
			Expect(err).To(BeNil())
			Expect(pkt.Header.FormatID).To(Equal(nfcast.FormatID_Canonical))
			Expect(pkt.Header.MessageType).To(Equal(nfcast.MessageType_MarketPicture))
			Expect(pkt.Header.ClockValid).To(BeTrue())
			Expect(pkt.Records).To(HaveLen(2))

			rec := pkt.Records[0]
			Expect(rec.Empty).To(BeFalse())
			Expect(rec.Compressed).To(BeFalse())
			Expect(rec.Token).To(Equal(uint32(873870)))
			Expect(rec.LTP).To(Equal(int32(120775)))
			Expect(rec.LTQ).To(Equal(uint64(20)))
			Expect(rec.Volume).To(Equal(uint32(480)))
			Expect(rec.Cursor).To(Equal(nfcast.Record_CursorOffset))

			Expect(pkt.Records[1].Empty).To(BeTrue())
			Expect(pkt.NonEmptyRecords()).To(HaveLen(1))
			Expect(stats.RecordsEmitted).To(Equal(uint64(1)))
			Expect(stats.RecordsEmpty).To(Equal(uint64(1)))
		})

		It("should combine the header wall time with the system date", func() {
			slot := buildRecordSlot(recordFields{Token: 861384, LTP: 100}, nil)
			datagram := buildDatagram(2020, 23, 59, 59, slot, slot)

			pkt, err := decoder.DecodePacket(datagram)
			Expect(err).To(BeNil())
			ts := pkt.Header.Timestamp
			Expect(ts.Year()).To(Equal(2025))
			Expect(ts.Month()).To(Equal(time.November))
			Expect(ts.Day()).To(Equal(27))
			Expect(ts.Hour()).To(Equal(23))
			Expect(ts.Minute()).To(Equal(59))
			Expect(ts.Second()).To(Equal(59))
			Expect(ts.Nanosecond()).To(Equal(123_000_000))
		})

		It("should fall back to the wall clock on a bad header time", func() {
			slot := buildRecordSlot(recordFields{Token: 861384, LTP: 100}, nil)
			datagram := buildDatagram(2020, 25, 0, 0, slot, slot)

			pkt, err := decoder.DecodePacket(datagram)
			Expect(err).To(BeNil())
			Expect(pkt.Header.ClockValid).To(BeFalse())
			Expect(pkt.Header.Timestamp).To(Equal(fixedNow))
			Expect(stats.BadTimestamps).To(Equal(uint64(1)))
		})

		It("should accept complex market pictures", func() {
			slot := buildRecordSlot(recordFields{Token: 861384, LTP: 100}, nil)
			datagram := buildDatagram(2021, 10, 0, 0, slot, slot)

			pkt, err := decoder.DecodePacket(datagram)
			Expect(err).To(BeNil())
			Expect(pkt.Header.MessageType).To(Equal(nfcast.MessageType_ComplexMarketPicture))
		})

		It("should be idempotent over the same bytes", func() {
			slot := buildRecordSlot(recordFields{
				Token: 873870, PrevClose: 119000, Volume: 480, LTQ: 20, LTP: 120775,
			}, nil)
			datagram := buildDatagram(2020, 10, 30, 15, slot, slot)

			first, err := decoder.DecodePacket(datagram)
			Expect(err).To(BeNil())
			second, err := decoder.DecodePacket(datagram)
			Expect(err).To(BeNil())
			Expect(second.Header).To(Equal(first.Header))
			Expect(second.Records).To(Equal(first.Records))
		})
	})

	Context("legacy datagrams", func() {
		It("should mark 300-byte records as compressed", func() {
			slot := buildRecordSlot(recordFields{Token: 861384, LTQ: 10, LTP: 1000}, nil)
			datagram := buildDatagram(2020, 10, 0, 0, slot)
			Expect(len(datagram)).To(Equal(300))

			pkt, err := decoder.DecodePacket(datagram)
			Expect(err).To(BeNil())
			Expect(pkt.Records).To(HaveLen(1))
			Expect(pkt.Records[0].Compressed).To(BeTrue())
		})

		It("should reject 300-byte datagrams unless configured", func() {
			strict := nfcast.NewDecoder(nfcast.DecoderOptions{Stats: stats})
			slot := buildRecordSlot(recordFields{Token: 861384, LTP: 100}, nil)
			datagram := buildDatagram(2020, 10, 0, 0, slot)

			_, err := strict.DecodePacket(datagram)
			Expect(err).To(MatchError(nfcast.ErrUnknownFormat))
			Expect(stats.DroppedBadLength).To(Equal(uint64(1)))
		})
	})

	Context("rejections", func() {
		var datagram []byte

		BeforeEach(func() {
			slot := buildRecordSlot(recordFields{Token: 861384, LTP: 100}, nil)
			datagram = buildDatagram(2020, 10, 0, 0, slot, slot)
		})

		It("should drop datagrams with bad leading bytes", func() {
			datagram[0] = 0xFF
			_, err := decoder.DecodePacket(datagram)
			Expect(err).To(MatchError(nfcast.ErrBadLeadingBytes))
			Expect(stats.DroppedBadLeading).To(Equal(uint64(1)))
		})

		It("should drop datagrams whose format id mismatches the length", func() {
			binary.LittleEndian.PutUint16(datagram[4:6], 564)
			_, err := decoder.DecodePacket(datagram[:500])
			Expect(err).To(MatchError(nfcast.ErrLengthMismatch))
			Expect(stats.DroppedBadLength).To(Equal(uint64(1)))
		})

		It("should drop unsupported message types", func() {
			binary.LittleEndian.PutUint16(datagram[8:10], 2033)
			_, err := decoder.DecodePacket(datagram)
			Expect(err).To(MatchError(nfcast.ErrUnsupportedMsgType))
			Expect(stats.DroppedBadType).To(Equal(uint64(1)))
		})

		It("should drop truncated datagrams", func() {
			_, err := decoder.DecodePacket(datagram[:20])
			Expect(err).To(MatchError(nfcast.ErrShortDatagram))
			Expect(stats.DroppedShort).To(Equal(uint64(1)))
		})
	})
})
