// Copyright (c) 2025 Neomantra Corp

package nfcast_feed

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

const (
	// One receive bound per iteration; the run loop observes shutdown
	// between attempts.
	DEFAULT_READ_TIMEOUT = 1 * time.Second

	// Kernel receive buffer request; operators tune this to tolerate
	// bursts, since the pipeline does no internal buffering.
	DEFAULT_BUFFER_SIZE = 8 * 1024 * 1024

	// Largest datagram we accept from the wire.
	MAX_DATAGRAM_SIZE = 2 * 1024
)

///////////////////////////////////////////////////////////////////////////////

// FeedConfig configures a FeedClient.
type FeedConfig struct {
	Logger      *slog.Logger
	Group       string        // multicast group address, dotted quad
	Port        int           // UDP port
	Interface   string        // optional interface name to join on
	BufferSize  int           // kernel receive buffer request, bytes
	ReadTimeout time.Duration // per-receive bound, default 1s
	Verbose     bool
}

func (c *FeedConfig) validate() error {
	if c.Group == "" {
		return errors.New("field Group is unset")
	}
	ip := net.ParseIP(c.Group)
	if ip == nil || !ip.IsMulticast() {
		return fmt.Errorf("field Group '%s' is not a multicast address", c.Group)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("field Port %d is out of range", c.Port)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////

// FeedClient receives NFCAST datagrams from a multicast group.  Each
// receive yields one complete datagram; there is no framing and no
// accumulation.  This client provides a blocking API with a bounded
// wait for getting the next datagram.
type FeedClient struct {
	config FeedConfig
	logger *slog.Logger

	conn    *net.UDPConn
	scratch []byte
}

// NewFeedClient takes a FeedConfig, creates a FeedClient and joins the
// multicast group.  Returns an error if the join fails.
func NewFeedClient(config FeedConfig) (*FeedClient, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = DEFAULT_READ_TIMEOUT
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DEFAULT_BUFFER_SIZE
	}

	c := &FeedClient{
		config:  config,
		logger:  config.Logger,
		scratch: make([]byte, MAX_DATAGRAM_SIZE),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	var iface *net.Interface
	if config.Interface != "" {
		var err error
		if iface, err = net.InterfaceByName(config.Interface); err != nil {
			return nil, fmt.Errorf("failed to find interface '%s': %w", config.Interface, err)
		}
	}

	groupAddr := &net.UDPAddr{IP: net.ParseIP(config.Group), Port: config.Port}
	conn, err := net.ListenMulticastUDP("udp4", iface, groupAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to join %s:%d: %w", config.Group, config.Port, err)
	}
	if err := conn.SetReadBuffer(config.BufferSize); err != nil {
		c.logger.Warn("[FeedClient] failed to set receive buffer",
			"bytes", config.BufferSize, "error", err.Error())
	}
	c.conn = conn

	if c.config.Verbose {
		c.logger.Info("[FeedClient] joined group",
			"group", config.Group, "port", config.Port, "buffer_size", config.BufferSize)
	}
	return c, nil
}

// GetConfig returns the FeedConfig used to create the FeedClient.
func (c *FeedClient) GetConfig() FeedConfig {
	return c.config
}

// NextDatagram waits up to the configured bound for one datagram.
// A timeout is not an error: it returns (nil, nil, nil) so the caller
// can observe cancellation and try again.  Socket-level errors are
// fatal to the run loop and surface as err.
//
// The payload aliases an internal scratch buffer valid until the next
// call.
func (c *FeedClient) NextDatagram() ([]byte, *net.UDPAddr, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout)); err != nil {
		return nil, nil, err
	}
	n, addr, err := c.conn.ReadFromUDP(c.scratch)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return c.scratch[:n], addr, nil
}

// Stop leaves the group and closes the socket.
func (c *FeedClient) Stop() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		c.logger.Error("[FeedClient.Stop] error closing socket", "error", err.Error())
		return err
	}
	if c.config.Verbose {
		c.logger.Info("[FeedClient.Stop] left group")
	}
	return nil
}
