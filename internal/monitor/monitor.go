package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/logfile"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/probe"
)

// Ordinary failure lines stop after this many consecutive misses so a long
// outage does not flood the site log.
const maxFailureLines = 4

// Every alertEvery-th consecutive failure produces one high-severity ALERT
// line, the only periodic reminder during a long outage.
const alertEvery = 12

const sendTimeout = 10 * time.Second

// LogWriter is the slice of *logfile.Writer the monitor package needs.
type LogWriter interface {
	Append(path, msg string) error
	Truncate(path string) error
}

// Monitor owns the health state machine for exactly one site. State is never
// shared with other goroutines, so no locking is involved.
type Monitor struct {
	Site     domain.Site
	Logger   *zap.Logger
	Logs     LogWriter
	Notifier notify.Notifier
	Checker  probe.Checker

	SiteLog      string
	AggregateLog string

	state    domain.SiteState
	interval time.Duration
}

func New(
	site domain.Site,
	logger *zap.Logger,
	logs LogWriter,
	notifier notify.Notifier,
	checker probe.Checker,
	logDir string,
	aggregateLog string,
) *Monitor {
	return &Monitor{
		Site:         site,
		Logger:       logger,
		Logs:         logs,
		Notifier:     notifier,
		Checker:      checker,
		SiteLog:      logfile.SitePath(logDir, site.URL),
		AggregateLog: aggregateLog,
		state:        domain.NewSiteState(),
		interval:     time.Duration(site.PollInterval) * time.Second,
	}
}

// Run probes the site until ctx is cancelled: one check, one state update,
// one fixed-length sleep per cycle. Probe, notification and log failures
// never end the loop.
func (m *Monitor) Run(ctx context.Context) {
	for {
		m.cycle(ctx)

		t := time.NewTimer(m.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			m.Logger.Info("monitor_stopped", zap.String("url", m.Site.URL))
			return
		case <-t.C:
		}
	}
}

func (m *Monitor) cycle(ctx context.Context) {
	res := m.Checker.Check(ctx, m.Site.URL)
	if ctx.Err() != nil {
		// Shutting down; an aborted probe does not count either way.
		return
	}
	now := time.Now()
	if res.Success {
		m.onSuccess(now)
	} else {
		m.onFailure(res, now)
	}
}

func (m *Monitor) onSuccess(now time.Time) {
	if m.state.Status == domain.StatusDown {
		downtime := m.state.ConsecutiveFailures * m.Site.PollInterval
		msg := fmt.Sprintf("%s is back online, downtime=%ds", m.Site.URL, downtime)
		m.log(msg, true)
		m.send("🟢 site recovered", msg)
		m.state.ConsecutiveFailures = 0
		m.state.Status = domain.StatusUp
	}
	// Routine success is never reported.
	m.state.LastSuccessAt = now
}

func (m *Monitor) onFailure(res probe.CheckResult, now time.Time) {
	m.state.Status = domain.StatusDown
	m.state.ConsecutiveFailures++
	n := m.state.ConsecutiveFailures

	if n <= maxFailureLines {
		msg := fmt.Sprintf("%s is down (%s)", m.Site.URL, describeOutcome(res))
		m.log(msg, false)
		m.send("🔴 site down", msg)
	}
	if n%alertEvery == 0 {
		total := n * m.Site.PollInterval
		msg := fmt.Sprintf("ALERT: %s down for %ds (%d consecutive failures), last success %s",
			m.Site.URL, total, n, lastSuccessText(m.state.LastSuccessAt))
		m.log(msg, true)
		m.send("🚨 site still down", msg)
		m.state.LastAlertAt = now
	}
}

// log appends to the per-site file and, for lifecycle/alert lines, to the
// aggregate file too. A failed append is reported on the diagnostic logger
// and otherwise ignored; monitoring continuity wins over log completeness.
func (m *Monitor) log(msg string, aggregate bool) {
	if err := m.Logs.Append(m.SiteLog, msg); err != nil {
		m.Logger.Warn("log_append_error", zap.String("path", m.SiteLog), zap.Error(err))
	}
	if aggregate {
		if err := m.Logs.Append(m.AggregateLog, msg); err != nil {
			m.Logger.Warn("log_append_error", zap.String("path", m.AggregateLog), zap.Error(err))
		}
	}
}

// send mirrors a line to the notification sink. Delivery is best-effort:
// errors are swallowed here and never reach the state machine.
func (m *Monitor) send(title, text string) {
	if m.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := m.Notifier.Send(ctx, title, text); err != nil {
		m.Logger.Debug("notify_error", zap.String("url", m.Site.URL), zap.Error(err))
	}
}

func describeOutcome(res probe.CheckResult) string {
	if res.StatusCode == 0 {
		return "no response"
	}
	return fmt.Sprintf("status %d", res.StatusCode)
}

func lastSuccessText(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}
