// Copyright (c) 2025 Neomantra Corp

package file

import (
	"fmt"
	"os"
	"time"

	nfcast "github.com/NimbleMarkets/nfcast-go"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"
)

///////////////////////////////////////////////////////////////////////////////

// WriteQuotesAsParquet writes quotes to a snappy-compressed parquet
// file.  Depth is flattened to the same comma-separated string columns
// as the CSV output.
func WriteQuotesAsParquet(quotes []*nfcast.Quote, destFile string) error {
	outfile, err := os.Create(destFile)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", destFile, err)
	}
	defer outfile.Close()

	pwProperties := parquet.NewWriterProperties(
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithCompression(compress.Codecs.Snappy))

	pw := pqfile.NewParquetWriter(outfile, ParquetGroupNode_Quote(), pqfile.WithWriterProps(pwProperties))
	defer pw.Close()

	rgw := pw.AppendBufferedRowGroup()
	for _, quote := range quotes {
		if err := ParquetWriteRow_Quote(rgw, quote); err != nil {
			return err
		}
	}
	rgw.Close()

	if err := pw.FlushWithFooter(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////

// ParquetGroupNode_Quote returns the Parquet Schema's Group Node for Quote.
//
// optional int32 field_id=-1 token (Int(bitWidth=32, isSigned=false));
// optional binary field_id=-1 symbol (String);
// optional binary field_id=-1 symbol_name (String);
// optional binary field_id=-1 expiry (String);
// optional binary field_id=-1 option_type (String);
// optional double field_id=-1 strike;
// optional int64 field_id=-1 ts (Timestamp(isAdjustedToUTC=false, timeUnit=milliseconds));
// optional double field_id=-1 open;
// optional double field_id=-1 high;
// optional double field_id=-1 low;
// optional double field_id=-1 close;
// optional double field_id=-1 ltp;
// optional int64 field_id=-1 volume (Int(bitWidth=64, isSigned=true));
// optional double field_id=-1 prev_close;
// optional binary field_id=-1 bid_prices (String);  ... ask_orders (String);
func ParquetGroupNode_Quote() *pqschema.GroupNode {
	utf8Node := func(name string) pqschema.Node {
		return pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted(name, parquet.Repetitions.Optional, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1))
	}
	return pqschema.MustGroup(pqschema.NewGroupNode("schema", parquet.Repetitions.Required, pqschema.FieldList{
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeLogical("token", parquet.Repetitions.Optional, pqschema.NewIntLogicalType(32, false), parquet.Types.Int32, 0, -1)),
		utf8Node("symbol"),
		utf8Node("symbol_name"),
		utf8Node("expiry"),
		utf8Node("option_type"),
		pqschema.NewFloat64Node("strike", parquet.Repetitions.Optional, -1),
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeLogical("ts", parquet.Repetitions.Optional, pqschema.NewTimestampLogicalType(false, pqschema.TimeUnitMillis), parquet.Types.Int64, 0, -1)),
		pqschema.NewFloat64Node("open", parquet.Repetitions.Optional, -1),
		pqschema.NewFloat64Node("high", parquet.Repetitions.Optional, -1),
		pqschema.NewFloat64Node("low", parquet.Repetitions.Optional, -1),
		pqschema.NewFloat64Node("close", parquet.Repetitions.Optional, -1),
		pqschema.NewFloat64Node("ltp", parquet.Repetitions.Optional, -1),
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeLogical("volume", parquet.Repetitions.Optional, pqschema.NewIntLogicalType(64, true), parquet.Types.Int64, 0, -1)),
		pqschema.NewFloat64Node("prev_close", parquet.Repetitions.Optional, -1),
		utf8Node("bid_prices"),
		utf8Node("bid_qtys"),
		utf8Node("bid_orders"),
		utf8Node("ask_prices"),
		utf8Node("ask_qtys"),
		utf8Node("ask_orders"),
	}, -1))
}

// ParquetWriteRow_Quote appends one Quote row to the buffered row group.
func ParquetWriteRow_Quote(rgw pqfile.BufferedRowGroupWriter, q *nfcast.Quote) error {
	// TODO: handle errors
	writeInt32 := func(col int, v int32) {
		cw, _ := rgw.Column(col)
		cw.(*pqfile.Int32ColumnChunkWriter).WriteBatch([]int32{v}, []int16{1}, nil)
	}
	writeInt64 := func(col int, v int64) {
		cw, _ := rgw.Column(col)
		cw.(*pqfile.Int64ColumnChunkWriter).WriteBatch([]int64{v}, []int16{1}, nil)
	}
	writeFloat64 := func(col int, v float64) {
		cw, _ := rgw.Column(col)
		cw.(*pqfile.Float64ColumnChunkWriter).WriteBatch([]float64{v}, []int16{1}, nil)
	}
	writeString := func(col int, v string) {
		cw, _ := rgw.Column(col)
		cw.(*pqfile.ByteArrayColumnChunkWriter).WriteBatch([]parquet.ByteArray{parquet.ByteArray(v)}, []int16{1}, nil)
	}

	bidPrices, bidQtys, bidOrders := flattenLevels(q.BidLevels)
	askPrices, askQtys, askOrders := flattenLevels(q.AskLevels)

	writeInt32(0, int32(q.Token))
	writeString(1, q.Symbol)
	writeString(2, q.SymbolName)
	writeString(3, q.Expiry)
	writeString(4, q.OptionType)
	writeFloat64(5, q.Strike)
	writeInt64(6, quoteTimestampMillis(q.Timestamp))
	writeFloat64(7, q.Open)
	writeFloat64(8, q.High)
	writeFloat64(9, q.Low)
	writeFloat64(10, q.Close)
	writeFloat64(11, q.LTP)
	writeInt64(12, q.Volume)
	writeFloat64(13, q.PrevClose)
	writeString(14, bidPrices)
	writeString(15, bidQtys)
	writeString(16, bidOrders)
	writeString(17, askPrices)
	writeString(18, askQtys)
	writeString(19, askOrders)
	return nil
}

// quoteTimestampMillis parses the quote's formatted timestamp back to
// epoch milliseconds; zero on parse failure.
func quoteTimestampMillis(ts string) int64 {
	t, err := time.ParseInLocation(nfcast.TimestampLayout, ts, time.Local)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
