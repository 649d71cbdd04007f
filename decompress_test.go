package nfcast_test

import (
	nfcast "github.com/NimbleMarkets/nfcast-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Decompressor", func() {
	var stats *nfcast.Stats
	var decompressor *nfcast.Decompressor
	var header nfcast.PacketHeader

	// Number of scalar differentials before the depth section
	const scalarCount = 12

	BeforeEach(func() {
		stats = &nfcast.Stats{}
		decompressor = nfcast.NewDecompressor(stats)
		header = nfcast.PacketHeader{FormatID: nfcast.FormatID_Legacy}
	})

	// compressedRecord builds a compressed RawRecord around the stream.
	compressedRecord := func(ltp int32, ltq uint64, stream *diffStream) *nfcast.RawRecord {
		slot := buildRecordSlot(recordFields{
			Token: 861384, Volume: 480, LTQ: ltq, LTP: ltp,
		}, stream.buf)
		var rec nfcast.RawRecord
		err := rec.Fill_Raw(slot, true)
		Expect(err).To(BeNil())
		return &rec
	}

	Context("uncompressed records", func() {
		It("should pass through the decoder's hints with no depth", func() {
			slot := buildRecordSlot(recordFields{
				Token: 873870, PrevClose: 119000, Open: 118000, High: 121000, Low: 117500,
				Volume: 480, LTQ: 20, LTP: 120775,
			}, nil)
			var rec nfcast.RawRecord
			Expect(rec.Fill_Raw(slot, false)).To(BeNil())

			depthRec, err := decompressor.Decompress(&header, &rec)
			Expect(err).To(BeNil())
			Expect(depthRec.Open).To(Equal(int64(118000)))
			Expect(depthRec.High).To(Equal(int64(121000)))
			Expect(depthRec.Low).To(Equal(int64(117500)))
			Expect(depthRec.Close).To(Equal(int64(120775)))
			Expect(depthRec.PrevClose).To(Equal(int64(119000)))
			Expect(depthRec.BidLevels).To(BeEmpty())
			Expect(depthRec.AskLevels).To(BeEmpty())
		})
	})

	Context("scalar decoding", func() {
		It("should decode all-zero differentials to OHLC == ltp", func() {
			stream := (&diffStream{}).zeros(scalarCount)
			stream.d16(nfcast.Diff_TerminatorBid).d16(nfcast.Diff_TerminatorAsk)

			depthRec, err := decompressor.Decompress(&header, compressedRecord(120775, 20, stream))
			Expect(err).To(BeNil())
			Expect(depthRec.Open).To(Equal(int64(120775)))
			Expect(depthRec.High).To(Equal(int64(120775)))
			Expect(depthRec.Low).To(Equal(int64(120775)))
			Expect(depthRec.Close).To(Equal(int64(120775)))
			Expect(depthRec.PrevClose).To(Equal(int64(120775)))
			Expect(depthRec.BidLevels).To(BeEmpty())
			Expect(depthRec.AskLevels).To(BeEmpty())
		})

		It("should apply plain differentials against the rate base", func() {
			stream := (&diffStream{}).d16(-775).d16(100).d16(225).d16(-3275).zeros(scalarCount - 4)
			stream.d16(nfcast.Diff_TerminatorBid).d16(nfcast.Diff_TerminatorAsk)

			depthRec, err := decompressor.Decompress(&header, compressedRecord(120775, 20, stream))
			Expect(err).To(BeNil())
			Expect(depthRec.Open).To(Equal(int64(120000)))
			Expect(depthRec.PrevClose).To(Equal(int64(120875)))
			Expect(depthRec.High).To(Equal(int64(121000)))
			Expect(depthRec.Low).To(Equal(int64(117500)))
		})

		It("should take the escape path to a full value regardless of base", func() {
			stream := (&diffStream{}).d16(0).abs(40000).zeros(scalarCount - 2)
			stream.d16(nfcast.Diff_TerminatorBid).d16(nfcast.Diff_TerminatorAsk)

			depthRec, err := decompressor.Decompress(&header, compressedRecord(120775, 20, stream))
			Expect(err).To(BeNil())
			Expect(depthRec.PrevClose).To(Equal(int64(40000)))
		})
	})

	Context("depth decoding", func() {
		It("should decode one bid level against the cascading bases", func() {
			stream := (&diffStream{}).zeros(scalarCount)
			stream.d16(0).d16(15).d16(-5).d16(-10) // level 1: rate, qty, orders, implied
			stream.d16(nfcast.Diff_TerminatorBid)  // no level 2
			stream.d16(nfcast.Diff_TerminatorAsk)  // empty ask side

			depthRec, err := decompressor.Decompress(&header, compressedRecord(1000, 10, stream))
			Expect(err).To(BeNil())
			Expect(depthRec.BidLevels).To(HaveLen(1))
			Expect(depthRec.BidLevels[0]).To(Equal(nfcast.DepthLevel{Price: 1000, Quantity: 25, Orders: 5}))
			Expect(depthRec.AskLevels).To(BeEmpty())
		})

		It("should cascade each level's decoded values into the next level's bases", func() {
			stream := (&diffStream{}).zeros(scalarCount)
			stream.d16(0).d16(15).d16(-5).d16(-10)  // level 1: 1000, 25, 5, 0
			stream.d16(-100).d16(10).d16(1).d16(20) // level 2 against (1000, 25, 5, 0)
			stream.d16(nfcast.Diff_TerminatorBid)
			stream.d16(nfcast.Diff_TerminatorAsk)

			depthRec, err := decompressor.Decompress(&header, compressedRecord(1000, 10, stream))
			Expect(err).To(BeNil())
			Expect(depthRec.BidLevels).To(HaveLen(2))
			Expect(depthRec.BidLevels[1]).To(Equal(nfcast.DepthLevel{Price: 900, Quantity: 35, Orders: 6}))
		})

		It("should round-trip a run of differentials exactly", func() {
			base := int64(1000)
			diffs := []int16{5, -3, 12, -7}
			stream := (&diffStream{}).zeros(scalarCount)
			for _, d := range diffs {
				stream.d16(d).zeros(3) // qty/orders/implied riding along
			}
			stream.d16(nfcast.Diff_TerminatorBid)
			stream.d16(nfcast.Diff_TerminatorAsk)

			depthRec, err := decompressor.Decompress(&header, compressedRecord(int32(base), 10, stream))
			Expect(err).To(BeNil())
			Expect(depthRec.BidLevels).To(HaveLen(len(diffs)))
			want := base
			for i, d := range diffs {
				want += int64(d)
				Expect(depthRec.BidLevels[i].Price).To(Equal(want))
			}
		})

		It("should decode the ask side after the bid terminator", func() {
			stream := (&diffStream{}).zeros(scalarCount)
			stream.d16(nfcast.Diff_TerminatorBid)
			stream.d16(25).d16(5).d16(2).d16(0)
			stream.d16(nfcast.Diff_TerminatorAsk)

			depthRec, err := decompressor.Decompress(&header, compressedRecord(1000, 10, stream))
			Expect(err).To(BeNil())
			Expect(depthRec.BidLevels).To(BeEmpty())
			Expect(depthRec.AskLevels).To(HaveLen(1))
			Expect(depthRec.AskLevels[0]).To(Equal(nfcast.DepthLevel{Price: 1025, Quantity: 15, Orders: 12}))
		})

		It("should use the escape value as the next level's rate base", func() {
			stream := (&diffStream{}).zeros(scalarCount)
			stream.abs(5000).d16(0).d16(0).d16(0) // level 1 rate escapes to 5000
			stream.d16(-10).d16(0).d16(0).d16(0)  // level 2 rides the new base
			stream.d16(nfcast.Diff_TerminatorBid)
			stream.d16(nfcast.Diff_TerminatorAsk)

			depthRec, err := decompressor.Decompress(&header, compressedRecord(1000, 10, stream))
			Expect(err).To(BeNil())
			Expect(depthRec.BidLevels).To(HaveLen(2))
			Expect(depthRec.BidLevels[0].Price).To(Equal(int64(5000)))
			Expect(depthRec.BidLevels[1].Price).To(Equal(int64(4990)))
		})

		It("should stop at five levels per side", func() {
			stream := (&diffStream{}).zeros(scalarCount)
			stream.zeros(4 * 7)                   // seven full levels of zeros offered
			stream.d16(nfcast.Diff_TerminatorAsk) // never reached by the bid side

			depthRec, err := decompressor.Decompress(&header, compressedRecord(1000, 10, stream))
			Expect(err).To(BeNil())
			Expect(depthRec.BidLevels).To(HaveLen(nfcast.MaxDepthLevels))
		})
	})

	Context("overruns", func() {
		It("should drop only the offending record and count it", func() {
			// Escapes take 192 of the 224-byte region; the ask side then
			// runs out of bytes at its fifth zero level
			stream := &diffStream{}
			for i := 0; i < scalarCount; i++ {
				stream.abs(1000)
			}
			for i := 0; i < nfcast.MaxDepthLevels; i++ {
				stream.abs(1000).abs(10).abs(1).abs(0)
			}

			_, err := decompressor.Decompress(&header, compressedRecord(1000, 10, stream))
			Expect(err).To(MatchError(nfcast.ErrDecompressOverrun))
			Expect(stats.DecompressOverruns).To(Equal(uint64(1)))

			// the next record still decodes
			good := (&diffStream{}).zeros(scalarCount)
			good.d16(nfcast.Diff_TerminatorBid).d16(nfcast.Diff_TerminatorAsk)
			_, err = decompressor.Decompress(&header, compressedRecord(1000, 10, good))
			Expect(err).To(BeNil())
			Expect(stats.DecompressOverruns).To(Equal(uint64(1)))
		})
	})
})
