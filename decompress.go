// Copyright (c) 2025 Neomantra Corp
//
// NFCAST differential decompression.
//
// The compressed region of a record is a run of big-endian int16
// differentials against running base values.  32767 escapes to a full
// big-endian int32 absolute value, which also replaces the base at that
// position.  32766 terminates the bid side, -32766 the ask side.

package nfcast

import "encoding/binary"

///////////////////////////////////////////////////////////////////////////////

// diffReader walks a record's compressed region.
// All reads here are big-endian; this is the only big-endian part of
// the packet.
type diffReader struct {
	buf []byte
	pos int
}

func (r *diffReader) readInt16() (int16, error) {
	if r.pos+2 > len(r.buf) {
		return 0, ErrDecompressOverrun
	}
	v := int16(binary.BigEndian.Uint16(r.buf[r.pos : r.pos+2]))
	r.pos += 2
	return v, nil
}

func (r *diffReader) readInt32() (int32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, ErrDecompressOverrun
	}
	v := int32(binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4]))
	r.pos += 4
	return v, nil
}

// resolve decodes one differential against base.
// escaped is true when the value came through the 32767 escape and must
// replace the base for subsequent decodes at this position.
func (r *diffReader) resolve(base int64) (value int64, escaped bool, err error) {
	d, err := r.readInt16()
	if err != nil {
		return 0, false, err
	}
	if d == Diff_EscapeFull {
		abs, err := r.readInt32()
		if err != nil {
			return 0, false, err
		}
		return int64(abs), true, nil
	}
	return base + int64(d), false, nil
}

// decodeSide decodes up to MaxDepthLevels levels for one book side.
// terminator is Diff_TerminatorBid or Diff_TerminatorAsk; hitting it as
// the first value of a level ends the side with no partial level.
// Each decoded level's four values become the next level's bases.
func (r *diffReader) decodeSide(terminator int16, rateBase, qtyBase int64) ([]DepthLevel, error) {
	levels := make([]DepthLevel, 0, MaxDepthLevels)
	rb, qb, ob, ib := rateBase, qtyBase, qtyBase, qtyBase
	for i := 0; i < MaxDepthLevels; i++ {
		d, err := r.readInt16()
		if err != nil {
			return nil, err
		}
		if d == terminator {
			return levels, nil
		}

		var rate int64
		if d == Diff_EscapeFull {
			abs, err := r.readInt32()
			if err != nil {
				return nil, err
			}
			rate = int64(abs)
		} else {
			rate = rb + int64(d)
		}

		qty, _, err := r.resolve(qb)
		if err != nil {
			return nil, err
		}
		orders, _, err := r.resolve(ob)
		if err != nil {
			return nil, err
		}
		implied, _, err := r.resolve(ib)
		if err != nil {
			return nil, err
		}

		levels = append(levels, DepthLevel{Price: rate, Quantity: qty, Orders: orders})
		rb, qb, ob, ib = rate, qty, orders, implied
	}
	return levels, nil
}

///////////////////////////////////////////////////////////////////////////////

// Decompressor reconstructs DepthRecords from RawRecords.
type Decompressor struct {
	stats *Stats
}

// NewDecompressor creates a Decompressor sharing the given Stats
// (nil allocates a private block).
func NewDecompressor(stats *Stats) *Decompressor {
	if stats == nil {
		stats = &Stats{}
	}
	return &Decompressor{stats: stats}
}

// Decompress reconstructs the market picture for one record.
// An overrun is fatal only to this record: the error is counted and the
// caller moves on to the next record in the datagram.
func (dc *Decompressor) Decompress(hdr *PacketHeader, rec *RawRecord) (*DepthRecord, error) {
	if rec.Empty {
		return nil, ErrEmptyRecord
	}
	if !rec.Compressed {
		return dc.passthrough(hdr, rec), nil
	}

	out := &DepthRecord{
		Token:     rec.Token,
		Timestamp: hdr.Timestamp,
		Volume:    int64(rec.Volume),
		NumTrades: int64(rec.NumTrades),
	}

	r := diffReader{buf: rec.Block[rec.Cursor:]}
	rateBase := int64(rec.LTP)
	qtyBase := int64(rec.LTQ)

	// Scalar run.  A price decodes against the running rate base, a
	// quantity against the running quantity base; an escape replaces
	// the respective base for the rest of the record.
	price := func() (int64, error) {
		v, escaped, err := r.resolve(rateBase)
		if escaped {
			rateBase = v
		}
		return v, err
	}
	qty := func() (int64, error) {
		v, escaped, err := r.resolve(qtyBase)
		if escaped {
			qtyBase = v
		}
		return v, err
	}

	var err error
	if out.Open, err = price(); err != nil {
		return dc.overrun(err)
	}
	if out.PrevClose, err = price(); err != nil {
		return dc.overrun(err)
	}
	if out.High, err = price(); err != nil {
		return dc.overrun(err)
	}
	if out.Low, err = price(); err != nil {
		return dc.overrun(err)
	}
	if _, err = price(); err != nil { // reserved
		return dc.overrun(err)
	}
	if out.IndicativePrice, err = price(); err != nil {
		return dc.overrun(err)
	}
	if out.IndicativeQty, err = qty(); err != nil {
		return dc.overrun(err)
	}
	if out.TotalBidQty, err = qty(); err != nil {
		return dc.overrun(err)
	}
	if out.TotalOfferQty, err = qty(); err != nil {
		return dc.overrun(err)
	}
	if out.LowerCircuit, err = price(); err != nil {
		return dc.overrun(err)
	}
	if out.UpperCircuit, err = price(); err != nil {
		return dc.overrun(err)
	}
	if out.WeightedAverage, err = price(); err != nil {
		return dc.overrun(err)
	}

	out.Close = int64(rec.LTP)

	if out.BidLevels, err = r.decodeSide(Diff_TerminatorBid, rateBase, qtyBase); err != nil {
		return dc.overrun(err)
	}
	if out.AskLevels, err = r.decodeSide(Diff_TerminatorAsk, rateBase, qtyBase); err != nil {
		return dc.overrun(err)
	}
	return out, nil
}

// passthrough synthesizes a DepthRecord from an uncompressed record.
// This variant carries no depth.
func (dc *Decompressor) passthrough(hdr *PacketHeader, rec *RawRecord) *DepthRecord {
	return &DepthRecord{
		Token:     rec.Token,
		Timestamp: hdr.Timestamp,
		Open:      int64(rec.OpenHint),
		High:      int64(rec.HighHint),
		Low:       int64(rec.LowHint),
		Close:     int64(rec.LTP),
		PrevClose: int64(rec.PrevClose),
		Volume:    int64(rec.Volume),
		NumTrades: int64(rec.NumTrades),
		BidLevels: []DepthLevel{},
		AskLevels: []DepthLevel{},
	}
}

func (dc *Decompressor) overrun(err error) (*DepthRecord, error) {
	dc.stats.DecompressOverruns++
	return nil, err
}
