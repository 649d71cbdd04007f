// Copyright (c) 2025 Neomantra Corp

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	nfcast "github.com/NimbleMarkets/nfcast-go"
	nfcast_feed "github.com/NimbleMarkets/nfcast-go/feed"
	nfcast_file "github.com/NimbleMarkets/nfcast-go/internal/file"
	nfcast_master "github.com/NimbleMarkets/nfcast-go/master"
	nfcast_publish "github.com/NimbleMarkets/nfcast-go/publish"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const statsInterval = 60 * time.Second

///////////////////////////////////////////////////////////////////////////////

// Config is the YAML configuration consumed from the working directory.
type Config struct {
	Multicast struct {
		IP   string `yaml:"ip"`
		Port int    `yaml:"port"`
	} `yaml:"multicast"`
	Stream       string `yaml:"stream"`        // named Stream instead of ip/port
	BufferSize   int    `yaml:"buffer_size"`   // kernel receive buffer, bytes
	Timeout      int    `yaml:"timeout"`       // receive bound, seconds
	TokenFile    string `yaml:"token_file"`    // contract master path
	MasterURL    string `yaml:"master_url"`    // optional HTTP source for the master
	OutputJSON   string `yaml:"output_json"`   // JSON sink directory
	OutputCSV    string `yaml:"output_csv"`    // CSV sink directory
	LoggingLevel string `yaml:"logging_level"` // debug, info, warn, error
	AcceptLegacy bool   `yaml:"accept_legacy"` // also accept 300-byte datagrams
	CaptureFile  string `yaml:"capture_file"`  // optional raw datagram tee
	Publish      struct {
		URL     string `yaml:"url"` // NATS server, empty disables
		Subject string `yaml:"subject"`
	} `yaml:"publish"`
	Verbose bool `yaml:"-"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config '%s': %w", path, err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config '%s': %w", path, err)
	}
	if config.Stream != "" {
		stream := nfcast.FindStream(config.Stream)
		if stream == nil {
			return nil, fmt.Errorf("unknown stream '%s'", config.Stream)
		}
		config.Multicast.IP = stream.Group
		config.Multicast.Port = stream.Port
	}
	if config.Multicast.IP == "" || config.Multicast.Port == 0 {
		return nil, fmt.Errorf("missing multicast.ip/multicast.port")
	}
	if config.TokenFile == "" && config.MasterURL == "" {
		return nil, fmt.Errorf("missing token_file")
	}
	if config.Timeout <= 0 {
		config.Timeout = 1
	}
	if config.OutputJSON == "" {
		config.OutputJSON = "."
	}
	if config.OutputCSV == "" {
		config.OutputCSV = "."
	}
	return &config, nil
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

///////////////////////////////////////////////////////////////////////////////

func main() {
	var configFile string
	var verbose, showHelp bool

	pflag.StringVarP(&configFile, "config", "c", "nfcast.yaml", "Configuration file to load")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s [opts]\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}

	config, err := loadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %s\n", err.Error())
		os.Exit(1)
	}
	config.Verbose = verbose

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(config.LoggingLevel),
	}))
	slog.SetDefault(logger)

	if err := run(config, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

func run(config *Config, logger *slog.Logger) error {
	// Contract master first; nothing works without it
	master, err := acquireMaster(config, logger)
	if err != nil {
		return err
	}
	logger.Info("loaded contract master", "contracts", master.Len())

	// Sinks and optional collaborators before joining the group
	stats := &nfcast.Stats{}
	sink := nfcast_file.NewQuoteSink(config.OutputJSON, config.OutputCSV, logger, stats, nil)
	defer sink.Close()

	var captureWriter io.Writer
	if config.CaptureFile != "" {
		writer, closer, err := nfcast.OpenCaptureWriter(config.CaptureFile, false)
		if err != nil {
			return fmt.Errorf("failed to create capture file: %w", err)
		}
		defer closer()
		captureWriter = writer
	}

	var publisher *nfcast_publish.Publisher
	if config.Publish.URL != "" {
		publisher, err = nfcast_publish.NewPublisher(nfcast_publish.PublisherConfig{
			Logger:        logger,
			URL:           config.Publish.URL,
			SubjectPrefix: config.Publish.Subject,
			Verbose:       config.Verbose,
		})
		if err != nil {
			return err
		}
		defer publisher.Close()
	}

	// Join the multicast group
	feedClient, err := nfcast_feed.NewFeedClient(nfcast_feed.FeedConfig{
		Logger:      logger,
		Group:       config.Multicast.IP,
		Port:        config.Multicast.Port,
		BufferSize:  config.BufferSize,
		ReadTimeout: time.Duration(config.Timeout) * time.Second,
		Verbose:     config.Verbose,
	})
	if err != nil {
		return err
	}
	defer feedClient.Stop()

	decoder := nfcast.NewDecoder(nfcast.DecoderOptions{
		Logger:       logger,
		Stats:        stats,
		AcceptLegacy: config.AcceptLegacy,
	})
	decompressor := nfcast.NewDecompressor(stats)
	normalizer := nfcast.NewNormalizer(master, nfcast.NormalizerOptions{
		Logger: logger,
		Stats:  stats,
	})

	// Shutdown flag, observed between receive attempts
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("pipeline running",
		"group", config.Multicast.IP, "port", config.Multicast.Port)
	lastStats := time.Now()

	for {
		select {
		case sig := <-sigChan:
			logger.Info("shutting down", "signal", sig.String())
			stats.LogSnapshot(logger, "final stats")
			return nil
		default:
		}

		payload, _, err := feedClient.NextDatagram()
		if err != nil {
			return fmt.Errorf("receive failed: %w", err)
		}

		if payload != nil {
			processDatagram(payload, captureWriter, decoder, decompressor, normalizer,
				sink, publisher, stats, logger)
		}

		if time.Since(lastStats) >= statsInterval {
			lastStats = time.Now()
			logger.Info("stats",
				"datagrams", humanize.Comma(int64(stats.Datagrams)),
				"quotes", humanize.Comma(int64(stats.QuotesEmitted)),
				"dropped", humanize.Comma(int64(stats.QuotesDropped)))
		}
	}
}

// processDatagram runs one datagram through the pipeline.  Records are
// processed and persisted in slot order; a bad record never affects the
// rest of its datagram.
func processDatagram(payload []byte, captureWriter io.Writer,
	decoder *nfcast.Decoder, decompressor *nfcast.Decompressor, normalizer *nfcast.Normalizer,
	sink *nfcast_file.QuoteSink, publisher *nfcast_publish.Publisher,
	stats *nfcast.Stats, logger *slog.Logger,
) {
	pkt, err := decoder.DecodePacket(payload)
	if err != nil {
		logger.Debug("dropped datagram", "reason", err.Error(), "length", len(payload))
		return
	}

	if captureWriter != nil {
		if _, err := captureWriter.Write(payload); err != nil {
			stats.WriteErrors++
			logger.Error("capture write failed", "error", err.Error())
		}
	}

	for i := range pkt.Records {
		rec := &pkt.Records[i]
		if rec.Empty {
			continue
		}
		depthRec, err := decompressor.Decompress(&pkt.Header, rec)
		if err != nil {
			logger.Debug("dropped record", "token", rec.Token, "reason", err.Error())
			continue
		}
		quote, ok := normalizer.Normalize(depthRec)
		if !ok {
			continue
		}
		sink.Save(quote)
		if publisher != nil {
			if err := publisher.Publish(quote); err != nil {
				stats.PublishErrors++
				logger.Error("publish failed", "token", quote.Token, "error", err.Error())
			}
		}
	}
}

// acquireMaster loads the contract master, preferring the HTTP source
// when configured and falling back to the local file.
func acquireMaster(config *Config, logger *slog.Logger) (*nfcast.ContractMaster, error) {
	if config.MasterURL != "" {
		master, err := nfcast_master.Fetch(nfcast_master.FetchConfig{
			Logger:  logger,
			URL:     config.MasterURL,
			CacheTo: config.TokenFile,
			Verbose: config.Verbose,
		})
		if err == nil {
			return master, nil
		}
		if config.TokenFile == "" {
			return nil, err
		}
		logger.Warn("contract master fetch failed, falling back to file",
			"error", err.Error(), "path", config.TokenFile)
	}
	return nfcast_master.LoadFile(config.TokenFile)
}
