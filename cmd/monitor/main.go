package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/httpapi"
	"github.com/hamed0406/sitewatch/internal/logfile"
	"github.com/hamed0406/sitewatch/internal/logging"
	"github.com/hamed0406/sitewatch/internal/monitor"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/probe"
)

func main() {
	cfgPath := flag.String("config", "", "config file (default: sitewatch.yaml in . or ./config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	logs := logfile.NewWriter()
	defer logs.Close()

	sink := buildSink(cfg.Notify)
	checker := probe.NewHTTPChecker(cfg.HTTPTimeout)
	sup := monitor.NewSupervisor(
		logger, logs, sink, checker,
		cfg.LogDir, cfg.AggregateLog, cfg.TruncateOnStart,
	)

	if cfg.OpsAddr != "" {
		api := httpapi.NewServer(logger)
		go func() {
			logger.Info("ops_listen", zap.String("addr", cfg.OpsAddr))
			if err := http.ListenAndServe(cfg.OpsAddr, api.Router()); err != nil {
				logger.Warn("ops_server_error", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sites := cfg.SiteList()
	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Run(ctx, sites)
	}()

	select {
	case <-ctx.Done():
		// Termination request: write the shutdown record, cancel every
		// monitor and exit. In-flight probes are abandoned.
		sup.Shutdown()
	case <-done:
	}
}

func buildSink(cfg config.NotifyConfig) notify.Notifier {
	if !cfg.Enabled {
		return nil
	}
	var channels notify.Multi
	if s := notify.NewSlack(cfg.SlackWebhook); s != nil {
		channels = append(channels, s)
	}
	if t := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID); t != nil {
		channels = append(channels, t)
	}
	if len(channels) == 0 {
		return nil
	}
	return channels
}
