package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"chratos.dev/node/node"
	"chratos.dev/node/node/store"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := node.DefaultConfig()

	fs := flag.NewFlagSet("chratosd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML config file")
	network := fs.String("network", "", "network name (test/beta/live)")
	dataDir := fs.String("datadir", "", "node data directory")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error")
	gapCacheSize := fs.Int("gap-cache-size", 0, "max buffered dependency gaps")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := node.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "chratosd: %v\n", err)
		return 1
	}
	if *network != "" {
		cfg.Network = *network
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *gapCacheSize != 0 {
		cfg.GapCacheSize = *gapCacheSize
	}
	if cfg.Network == "" {
		cfg.Network = defaults.Network
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := node.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(stderr, "chratosd: invalid config: %v\n", err)
		return 1
	}
	if *dryRun {
		fmt.Fprintf(stdout, "network=%s datadir=%s log_level=%s gap_cache_size=%d\n",
			cfg.Network, cfg.DataDir, cfg.LogLevel, cfg.GapCacheSize)
		return 0
	}

	logger := log.NewWithOptions(stderr, log.Options{
		Level:           levelFor(cfg.LogLevel),
		ReportTimestamp: true,
	})

	n, err := node.NewNode(cfg, logger, nil)
	if err != nil {
		logger.Error("startup failed", "err", err)
		return 1
	}
	defer n.Close()

	if err := n.Store.View(func(txn *store.Transaction) error {
		counts := n.Store.BlockCount(txn)
		dividend := n.Store.DividendGet(txn)
		logger.Info("ledger ready",
			"blocks", counts.Sum(),
			"accounts", n.Store.AccountCount(txn),
			"dividend_head", dividend.Head,
			"dividends", dividend.BlockCount)
		return nil
	}); err != nil {
		logger.Error("ledger stats failed", "err", err)
		return 1
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
	return 0
}

func levelFor(name string) log.Level {
	switch name {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	}
	return log.InfoLevel
}
