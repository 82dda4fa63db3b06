package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/cli"
	"modelgate/gateway/pkg/config"
	"modelgate/gateway/pkg/dialect"
	"modelgate/gateway/pkg/proxy"
)

// checkTimeout bounds each endpoint probe so one unreachable upstream
// cannot stall the whole --check run.
const checkTimeout = 10 * time.Second

// checkResult is one endpoint's probe outcome, exported field names chosen
// for clean JSON output under --check-format json.
type checkResult struct {
	Endpoint string `json:"endpoint"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// runCheck loads the snapshot store already built by runGateway, probes
// every configured endpoint with a minimal completion request in its own
// dialect, and reports a pass/fail per endpoint in the requested format. It
// returns an error (non-zero exit) iff any endpoint failed.
func runCheck(store *config.Store) error {
	snap := store.Current()

	names := make([]string, 0, len(snap.Endpoints))
	for name := range snap.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	client := &http.Client{Timeout: checkTimeout}

	results := make([]checkResult, 0, len(names))
	allOK := true
	for _, name := range names {
		endpoint := snap.Endpoints[name]
		if err := probeEndpoint(client, endpoint); err != nil {
			allOK = false
			results = append(results, checkResult{Endpoint: name, OK: false, Error: err.Error()})
		} else {
			results = append(results, checkResult{Endpoint: name, OK: true})
		}
	}

	formatter := cli.NewFormatter(cli.OutputFormat(runFlags.checkFormat))
	if _, isText := formatter.(*cli.TextFormatter); isText {
		for _, r := range results {
			if r.OK {
				fmt.Printf("OK   %-30s\n", r.Endpoint)
			} else {
				fmt.Printf("FAIL %-30s %s\n", r.Endpoint, r.Error)
			}
		}
	} else if err := formatter.FormatTo(os.Stdout, results); err != nil {
		return fmt.Errorf("format check results: %w", err)
	}

	if !allOK {
		return fmt.Errorf("one or more endpoints failed the probe")
	}
	return nil
}

func probeEndpoint(client *http.Client, endpoint config.Endpoint) error {
	upstreamDialect := dialect.Name(endpoint.LLMParams.APIType)

	conv := &canonical.Conversation{
		Messages: []canonical.Message{
			{Role: canonical.RoleUser, Blocks: []canonical.Block{{Kind: canonical.BlockText, Text: "ping"}}},
		},
		MaxTokens: 1,
	}

	body, err := dialect.FromCanonical(upstreamDialect, conv)
	if err != nil {
		return fmt.Errorf("translate probe request: %w", err)
	}

	path, err := proxy.UpstreamPath(upstreamDialect, endpoint.LLMParams.Model, false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	req, err := proxy.BuildUpstreamRequest(ctx, endpoint, path, body)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("upstream responded %s", resp.Status)
}
