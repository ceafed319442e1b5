package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/logfile"
	"github.com/hamed0406/sitewatch/internal/probe"
)

func main() {
	cfgPath := flag.String("config", "", "config file (default: sitewatch.yaml in . or ./config)")
	flag.Parse()

	// Dispatch table, built once at startup.
	commands := map[string]func(*config.Config) error{
		"check": runCheck,
		"paths": runPaths,
	}

	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintln(os.Stderr, "usage: sitewatch-cli [-config file] <command>")
		fmt.Fprintln(os.Stderr, "commands:")
		names := make([]string, 0, len(commands))
		for n := range commands {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintln(os.Stderr, "  "+n)
		}
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cmd(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runCheck probes every configured site once and prints one line per site.
func runCheck(cfg *config.Config) error {
	chk := probe.NewHTTPChecker(cfg.HTTPTimeout)
	ctx := context.Background()
	for _, s := range cfg.SiteList() {
		out := chk.Check(ctx, s.URL)
		mark := "DOWN"
		if out.Success {
			mark = "UP"
		}
		code := "no response"
		if out.StatusCode != 0 {
			code = fmt.Sprintf("%d", out.StatusCode)
		}
		fmt.Printf("%-4s %s (%s, %.0f ms)\n", mark, s.URL, code, out.LatencyMS)
	}
	return nil
}

// runPaths prints the resolved log file for every site plus the aggregate.
func runPaths(cfg *config.Config) error {
	for _, s := range cfg.SiteList() {
		fmt.Println(logfile.SitePath(cfg.LogDir, s.URL))
	}
	fmt.Println(cfg.AggregateLog)
	return nil
}
