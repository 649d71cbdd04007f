package file_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	nfcast "github.com/NimbleMarkets/nfcast-go"
	nfcast_file "github.com/NimbleMarkets/nfcast-go/internal/file"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func sampleQuote() *nfcast.Quote {
	return &nfcast.Quote{
		Token:      873870,
		Symbol:     "SENSEX",
		SymbolName: "SENSEX27NOV2025_84100CE",
		Expiry:     "27-NOV-2025",
		OptionType: "CE",
		Strike:     84100,
		Timestamp:  "2025-11-27 10:30:15.123",
		Open:       1180.00,
		High:       1210.00,
		Low:        1175.00,
		Close:      1207.75,
		LTP:        1207.75,
		Volume:     480,
		PrevClose:  1190.00,
		BidLevels: []nfcast.QuoteLevel{
			{Price: 1207.00, Quantity: 25, Orders: 5},
			{Price: 1206.50, Quantity: 40, Orders: 8},
		},
		AskLevels: []nfcast.QuoteLevel{},
	}
}

var _ = Describe("QuoteCSVWriter", func() {
	var dir string
	var now time.Time

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "nfcast-csv-test")
		Expect(err).To(BeNil())
		DeferCleanup(func() { os.RemoveAll(dir) })
		now = time.Date(2025, time.November, 27, 10, 30, 15, 0, time.Local)
	})

	It("should write the header exactly once per file", func() {
		writer := nfcast_file.NewQuoteCSVWriter(dir, func() time.Time { return now })
		defer writer.Close()

		Expect(writer.Save(sampleQuote())).To(BeNil())
		Expect(writer.Save(sampleQuote())).To(BeNil())

		data, err := os.ReadFile(filepath.Join(dir, "20251127_quotes.csv"))
		Expect(err).To(BeNil())
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		Expect(lines).To(HaveLen(3))
		Expect(lines[0]).To(HavePrefix("token,symbol,symbol_name,"))
		Expect(strings.Count(string(data), "token,symbol")).To(Equal(1))
	})

	It("should wrap the timestamp as a literal formula cell", func() {
		writer := nfcast_file.NewQuoteCSVWriter(dir, func() time.Time { return now })
		defer writer.Close()
		Expect(writer.Save(sampleQuote())).To(BeNil())

		data, err := os.ReadFile(filepath.Join(dir, "20251127_quotes.csv"))
		Expect(err).To(BeNil())
		Expect(string(data)).To(ContainSubstring(`,="2025-11-27 10:30:15.123",`))
	})

	It("should flatten depth into quoted comma-separated columns", func() {
		writer := nfcast_file.NewQuoteCSVWriter(dir, func() time.Time { return now })
		defer writer.Close()
		Expect(writer.Save(sampleQuote())).To(BeNil())

		data, err := os.ReadFile(filepath.Join(dir, "20251127_quotes.csv"))
		Expect(err).To(BeNil())
		Expect(string(data)).To(ContainSubstring(`"1207.00,1206.50","25,40","5,8"`))
		// no ask depth: trailing columns stay empty
		Expect(strings.TrimRight(string(data), "\n")).To(HaveSuffix(`,,,`))
	})

	It("should append without a second header after a restart", func() {
		writer := nfcast_file.NewQuoteCSVWriter(dir, func() time.Time { return now })
		Expect(writer.Save(sampleQuote())).To(BeNil())
		Expect(writer.Close()).To(BeNil())

		reopened := nfcast_file.NewQuoteCSVWriter(dir, func() time.Time { return now })
		defer reopened.Close()
		Expect(reopened.Save(sampleQuote())).To(BeNil())

		data, err := os.ReadFile(filepath.Join(dir, "20251127_quotes.csv"))
		Expect(err).To(BeNil())
		Expect(strings.Count(string(data), "token,symbol")).To(Equal(1))
		Expect(strings.Count(string(data), "\n")).To(Equal(3))
	})

	It("should rotate to a new file at the date change", func() {
		writer := nfcast_file.NewQuoteCSVWriter(dir, func() time.Time { return now })
		defer writer.Close()
		Expect(writer.Save(sampleQuote())).To(BeNil())

		now = now.AddDate(0, 0, 1) // midnight passed
		Expect(writer.Save(sampleQuote())).To(BeNil())

		yesterday, err := os.ReadFile(filepath.Join(dir, "20251127_quotes.csv"))
		Expect(err).To(BeNil())
		today, err := os.ReadFile(filepath.Join(dir, "20251128_quotes.csv"))
		Expect(err).To(BeNil())
		Expect(strings.Count(string(yesterday), "token,symbol")).To(Equal(1))
		Expect(strings.Count(string(today), "token,symbol")).To(Equal(1))
	})
})

var _ = Describe("QuoteJSONWriter", func() {
	var dir string
	now := time.Date(2025, time.November, 27, 10, 30, 15, 0, time.Local)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "nfcast-json-test")
		Expect(err).To(BeNil())
		DeferCleanup(func() { os.RemoveAll(dir) })
	})

	It("should append one object per line", func() {
		writer := nfcast_file.NewQuoteJSONWriter(dir, func() time.Time { return now })
		defer writer.Close()
		Expect(writer.Save(sampleQuote())).To(BeNil())
		Expect(writer.Save(sampleQuote())).To(BeNil())

		data, err := os.ReadFile(filepath.Join(dir, "20251127_quotes.json"))
		Expect(err).To(BeNil())
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		Expect(lines).To(HaveLen(2))

		var quote nfcast.Quote
		Expect(json.Unmarshal([]byte(lines[0]), &quote)).To(BeNil())
		Expect(quote.SymbolName).To(Equal("SENSEX27NOV2025_84100CE"))
		Expect(quote.LTP).To(Equal(1207.75))
		Expect(quote.BidLevels).To(HaveLen(2))
	})
})
