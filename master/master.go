// Copyright (c) 2025 Neomantra Corp
//
// Contract master acquisition.  The pipeline itself consumes the master
// as an immutable mapping; this package is the startup glue that gets
// one, either from a local file or over HTTP from the exchange's daily
// publication.

package nfcast_master

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	nfcast "github.com/NimbleMarkets/nfcast-go"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	DEFAULT_FETCH_TIMEOUT = 30 * time.Second
	DEFAULT_RETRY_MAX     = 3
)

///////////////////////////////////////////////////////////////////////////////

// FetchConfig configures Fetch.
type FetchConfig struct {
	Logger   *slog.Logger
	URL      string        // contract master JSON endpoint
	Timeout  time.Duration // per-attempt bound, default 30s
	RetryMax int           // default 3
	CacheTo  string        // optional path to save the fetched body
	Verbose  bool
}

// Fetch downloads and parses a contract master over HTTP, retrying
// transient failures.  When CacheTo is set, the raw body is also saved
// so a later run can fall back to LoadFile.
func Fetch(config FetchConfig) (*nfcast.ContractMaster, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.URL == "" {
		return nil, fmt.Errorf("field URL is unset")
	}
	if config.Timeout <= 0 {
		config.Timeout = DEFAULT_FETCH_TIMEOUT
	}
	if config.RetryMax <= 0 {
		config.RetryMax = DEFAULT_RETRY_MAX
	}

	client := retryablehttp.NewClient()
	client.RetryMax = config.RetryMax
	client.HTTPClient.Timeout = config.Timeout
	client.Logger = nil

	resp, err := client.Get(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contract master: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract master body: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("HTTP %d %s fetching contract master", resp.StatusCode, resp.Status)
	}

	master, err := nfcast.ParseContractMaster(body)
	if err != nil {
		return nil, err
	}
	if config.Verbose {
		logger.Info("[master.Fetch] fetched contract master",
			"url", config.URL, "contracts", master.Len())
	}

	if config.CacheTo != "" {
		if err := os.WriteFile(config.CacheTo, body, 0644); err != nil {
			logger.Warn("[master.Fetch] failed to cache contract master",
				"path", config.CacheTo, "error", err.Error())
		}
	}
	return master, nil
}

// LoadFile parses a contract master from a local file.
func LoadFile(path string) (*nfcast.ContractMaster, error) {
	return nfcast.LoadContractMaster(path)
}
