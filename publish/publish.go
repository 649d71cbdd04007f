// Copyright (c) 2025 Neomantra Corp
//
// Optional NATS fan-out of normalized quotes for downstream consumers.
// Publishing is best-effort: a failed publish is counted and logged,
// never propagated to the receive loop.

package nfcast_publish

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	nfcast "github.com/NimbleMarkets/nfcast-go"
	"github.com/nats-io/nats.go"
	"github.com/segmentio/encoding/json"
)

const DEFAULT_SUBJECT_PREFIX = "nfcast.quotes"

///////////////////////////////////////////////////////////////////////////////

// PublisherConfig configures a Publisher.
type PublisherConfig struct {
	Logger        *slog.Logger
	URL           string // NATS server URL
	SubjectPrefix string // default "nfcast.quotes"
	Verbose       bool
}

// Publisher publishes quotes to NATS on "<prefix>.<symbol>".
type Publisher struct {
	config PublisherConfig
	logger *slog.Logger
	conn   *nats.Conn
}

// NewPublisher connects to the NATS server and returns a Publisher.
func NewPublisher(config PublisherConfig) (*Publisher, error) {
	if config.URL == "" {
		return nil, errors.New("field URL is unset")
	}
	if config.SubjectPrefix == "" {
		config.SubjectPrefix = DEFAULT_SUBJECT_PREFIX
	}

	p := &Publisher{
		config: config,
		logger: config.Logger,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	conn, err := nats.Connect(config.URL,
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS '%s': %w", config.URL, err)
	}
	p.conn = conn

	if config.Verbose {
		p.logger.Info("[Publisher] connected", "url", config.URL, "prefix", config.SubjectPrefix)
	}
	return p, nil
}

// Publish sends one quote.  The subject carries the base symbol so
// consumers can subscribe per-underlying.
func (p *Publisher) Publish(quote *nfcast.Quote) error {
	payload, err := json.Marshal(quote)
	if err != nil {
		return err
	}
	subject := p.config.SubjectPrefix + "." + quote.Symbol
	return p.conn.Publish(subject, payload)
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	p.conn.Close()
	p.conn = nil
	if p.config.Verbose {
		p.logger.Info("[Publisher] closed")
	}
}
