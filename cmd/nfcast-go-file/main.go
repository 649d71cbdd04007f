// Copyright (c) 2025 Neomantra Corp

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	nfcast "github.com/NimbleMarkets/nfcast-go"
	nfcast_file "github.com/NimbleMarkets/nfcast-go/internal/file"
	"github.com/relvacode/iso8601"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
)

///////////////////////////////////////////////////////////////////////////////

var (
	verbose bool

	masterFile string // contract master path
	outFile    string // destination for csv/parquet

	startTimeArg string // ISO 8601 inclusive lower bound on quote time
	endTimeArg   string // ISO 8601 exclusive upper bound on quote time

	forceZstdInput = false // force input to be zstd, irrespective of filename suffix
	acceptLegacy   = false // also accept 300-byte legacy datagrams
)

func requireNoError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

func main() {
	cobra.OnInitialize()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVarP(&masterFile, "master", "m", "", "Contract master JSON file")
	rootCmd.PersistentFlags().BoolVarP(&forceZstdInput, "zstd", "z", false, "Input is zstd (useful for handling zstd on stdin)")
	rootCmd.PersistentFlags().BoolVarP(&acceptLegacy, "legacy", "l", false, "Accept 300-byte legacy datagrams")
	rootCmd.PersistentFlags().StringVarP(&startTimeArg, "start", "t", "", "Only quotes at or after this ISO 8601 time")
	rootCmd.PersistentFlags().StringVarP(&endTimeArg, "end", "e", "", "Only quotes before this ISO 8601 time")
	rootCmd.MarkPersistentFlagRequired("master")

	rootCmd.AddCommand(jsonPrintCmd)

	rootCmd.AddCommand(csvCmd)
	csvCmd.Flags().StringVarP(&outFile, "out", "o", "-", "Output filename ('-' for stdout)")

	rootCmd.AddCommand(parquetCmd)
	parquetCmd.Flags().StringVarP(&outFile, "out", "o", "", "Output filename")
	parquetCmd.MarkFlagRequired("out")

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

var rootCmd = &cobra.Command{
	Use:   "nfcast-go-file",
	Short: "nfcast-go-file processes NFCAST capture files",
	Long:  "nfcast-go-file processes NFCAST capture files",
}

var jsonPrintCmd = &cobra.Command{
	Use:     "json file...",
	Aliases: []string{"print"},
	Short:   "Prints capture files' quotes as JSON lines",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pipeline := newFilePipeline()
		for _, filename := range args {
			err := pipeline.eachQuote(filename, func(quote *nfcast.Quote) error {
				line, err := json.Marshal(quote)
				if err != nil {
					return err
				}
				line = append(line, '\n')
				_, err = os.Stdout.Write(line)
				return err
			})
			requireNoError(err)
		}
	},
}

var csvCmd = &cobra.Command{
	Use:   "csv file...",
	Short: "Converts capture files' quotes to CSV",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		writer := os.Stdout
		if outFile != "-" {
			file, err := os.Create(outFile)
			requireNoError(err)
			defer file.Close()
			writer = file
		}
		_, err := writer.WriteString(nfcast_file.CSVHeaderLine)
		requireNoError(err)

		pipeline := newFilePipeline()
		for _, filename := range args {
			err := pipeline.eachQuote(filename, func(quote *nfcast.Quote) error {
				_, err := writer.WriteString(nfcast_file.QuoteCSVRow(quote))
				return err
			})
			requireNoError(err)
		}
	},
}

var parquetCmd = &cobra.Command{
	Use:   "parquet file...",
	Short: "Converts capture files' quotes to a parquet file",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pipeline := newFilePipeline()
		var quotes []*nfcast.Quote
		for _, filename := range args {
			err := pipeline.eachQuote(filename, func(quote *nfcast.Quote) error {
				quotes = append(quotes, quote)
				return nil
			})
			requireNoError(err)
		}
		requireNoError(nfcast_file.WriteQuotesAsParquet(quotes, outFile))
		if verbose {
			fmt.Fprintf(os.Stderr, "wrote %d quotes to '%s'\n", len(quotes), outFile)
		}
	},
}

///////////////////////////////////////////////////////////////////////////////

// filePipeline replays capture files through the decode stages.
type filePipeline struct {
	decoder      *nfcast.Decoder
	decompressor *nfcast.Decompressor
	normalizer   *nfcast.Normalizer
	startTime    time.Time
	endTime      time.Time
}

func newFilePipeline() *filePipeline {
	master, err := nfcast.LoadContractMaster(masterFile)
	requireNoError(err)

	logger := slog.Default()
	stats := &nfcast.Stats{}
	p := &filePipeline{
		decoder: nfcast.NewDecoder(nfcast.DecoderOptions{
			Logger:       logger,
			Stats:        stats,
			AcceptLegacy: acceptLegacy,
		}),
		decompressor: nfcast.NewDecompressor(stats),
		normalizer: nfcast.NewNormalizer(master, nfcast.NormalizerOptions{
			Logger: logger,
			Stats:  stats,
		}),
	}
	if startTimeArg != "" {
		p.startTime, err = iso8601.ParseString(startTimeArg)
		requireNoError(err)
	}
	if endTimeArg != "" {
		p.endTime, err = iso8601.ParseString(endTimeArg)
		requireNoError(err)
	}
	return p
}

// eachQuote decodes one capture file, invoking fn for every quote that
// survives the pipeline and the time filters.
func (p *filePipeline) eachQuote(filename string, fn func(*nfcast.Quote) error) error {
	reader, closer, err := nfcast.OpenCaptureReader(filename, forceZstdInput)
	if err != nil {
		return fmt.Errorf("failed to open '%s': %w", filename, err)
	}
	defer closer()

	scanner := nfcast.NewPacketScanner(reader)
	for scanner.Next() {
		pkt, err := p.decoder.DecodePacket(scanner.GetLastPacket())
		if err != nil {
			continue // counted by the decoder
		}
		for i := range pkt.Records {
			rec := &pkt.Records[i]
			if rec.Empty {
				continue
			}
			depthRec, err := p.decompressor.Decompress(&pkt.Header, rec)
			if err != nil {
				continue
			}
			if !p.inRange(depthRec.Timestamp) {
				continue
			}
			quote, ok := p.normalizer.Normalize(depthRec)
			if !ok {
				continue
			}
			if err := fn(quote); err != nil {
				return err
			}
		}
	}
	if err := scanner.Error(); err != nil && err != io.EOF {
		return fmt.Errorf("scanner error in '%s': %w", filename, err)
	}
	return nil
}

func (p *filePipeline) inRange(t time.Time) bool {
	if !p.startTime.IsZero() && t.Before(p.startTime) {
		return false
	}
	if !p.endTime.IsZero() && !t.Before(p.endTime) {
		return false
	}
	return true
}
