package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"modelgate/gateway/pkg/cli"
	"modelgate/gateway/pkg/config"
	"modelgate/gateway/pkg/edgerouter"
	"modelgate/gateway/pkg/health"
	"modelgate/gateway/pkg/metrics"
	"modelgate/gateway/pkg/picker"
	"modelgate/gateway/pkg/proxy"
	"modelgate/gateway/pkg/telemetry/logging"
)

var runFlags struct {
	ip          string
	port        int
	token       string
	logLevel    string
	logFile     string
	proxyURL    string
	check       bool
	checkFormat string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway, or probe every configured endpoint with --check",
	RunE:  runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.ip, "ip", "0.0.0.0", "listen address")
	runCmd.Flags().IntVar(&runFlags.port, "port", 8000, "listen port")
	runCmd.Flags().StringVar(&runFlags.token, "token", "", "bearer/credential token required from clients; empty disables authentication")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "warn", "log level: trace, debug, info, warn, error")
	runCmd.Flags().StringVar(&runFlags.logFile, "log-file", "", "path to a rotating log file (10MB cap); empty logs to stdout")
	runCmd.Flags().StringVar(&runFlags.proxyURL, "proxy", "", "URL of an outbound SOCKS or HTTP proxy applied to all upstream calls")
	runCmd.Flags().BoolVar(&runFlags.check, "check", false, "probe every configured endpoint and exit instead of serving")
	runCmd.Flags().StringVar(&runFlags.checkFormat, "check-format", "text", "output format for --check: text or json")
}

func buildLogger() (*logging.Logger, func(), error) {
	cfg := logging.Config{Level: runFlags.logLevel, Format: "json", RedactPII: true}

	var closeFn func()
	if runFlags.logFile != "" {
		rf, err := logging.NewRotatingFile(runFlags.logFile)
		if err != nil {
			return nil, nil, err
		}
		cfg.Writer = rf
		closeFn = func() { rf.Close() }
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() {}
	}
	return logger, closeFn, nil
}

func buildUpstreamClient() (*http.Client, error) {
	client := &http.Client{Timeout: 0}
	if runFlags.proxyURL == "" {
		return client, nil
	}
	proxyURL, err := url.Parse(runFlags.proxyURL)
	if err != nil {
		return nil, cli.NewConfigError("proxy", fmt.Sprintf("invalid --proxy URL: %v", err))
	}
	client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	return client, nil
}

func runGateway(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := buildLogger()
	if err != nil {
		return cli.NewConfigError("log-file", err.Error())
	}
	defer closeLog()
	slog.SetDefault(logger.Slog())

	store, err := config.NewStore(cfgFile, logger.Slog())
	if err != nil {
		return cli.NewConfigError("config", fmt.Sprintf("failed to load %s: %v", cfgFile, err))
	}

	healthTable := health.NewTable()
	healthTable.Sync(store.Current().ConfiguredWeights())
	store.OnReload = func(snap *config.Snapshot) {
		healthTable.Sync(snap.ConfiguredWeights())
	}

	if runFlags.check {
		return runCheck(store)
	}

	upstreamClient, err := buildUpstreamClient()
	if err != nil {
		return err
	}

	p := picker.New(store, healthTable)
	collector := metrics.NewCollector(healthTable)
	engine := proxy.New(p, healthTable, collector, logger.Slog())
	engine.Client = upstreamClient

	router := edgerouter.NewRouter(engine, store, collector, runFlags.token)

	addr := fmt.Sprintf("%s:%d", runFlags.ip, runFlags.port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.Handler(),
	}

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	go func() {
		if err := store.Watch(watchCtx, config.DefaultWatcherConfig()); err != nil {
			logger.Error("config watcher stopped", "error", err)
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := cli.WaitForShutdown()
	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
		cancelWatch()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}
		logger.Info("gateway stopped")
		return nil
	}
}
