// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"

	"github.com/hamed0406/sitewatch/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(os.Getenv("SITEWATCH_CONFIG"))
	if err != nil {
		fail("config: " + err.Error())
		return
	}

	ok(fmt.Sprintf("%d sites configured", len(cfg.Sites)))
	ok(fmt.Sprintf("poll interval %ds", cfg.PollInterval))
	if cfg.PollInterval < 5 {
		warn("poll interval under 5s hammers the targets; make sure that's intended")
	}

	if cfg.TruncateOnStart {
		warn("truncate_on_start is set — per-site log history is wiped on every start")
	}

	if !cfg.Notify.Enabled {
		warn("notifications disabled — outages will only reach the log files")
	} else {
		if cfg.Notify.SlackWebhook != "" {
			ok("slack channel configured")
		}
		if cfg.Notify.TelegramToken != "" {
			ok("telegram channel configured")
		}
	}

	if cfg.OpsAddr == "" {
		warn("ops_addr empty — no liveness endpoint will be served")
	} else {
		ok("ops_addr=" + cfg.OpsAddr)
	}

	ok("preflight passed")
}
