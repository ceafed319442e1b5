package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/probe"
)

// --- fakes ---

type memLog struct {
	mu    sync.Mutex
	lines map[string][]string
	err   error
}

func newMemLog() *memLog { return &memLog{lines: map[string][]string{}} }

func (l *memLog) Append(path, msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.lines[path] = append(l.lines[path], msg)
	return nil
}

func (l *memLog) Truncate(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines[path] = nil
	return nil
}

func (l *memLog) get(path string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines[path]))
	copy(out, l.lines[path])
	return out
}

type memNotifier struct {
	mu   sync.Mutex
	err  error
	msgs []string
}

func (n *memNotifier) Send(ctx context.Context, title, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, title+" "+text)
	return nil
}

func (n *memNotifier) count(substr string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.msgs {
		if strings.Contains(m, substr) {
			c++
		}
	}
	return c
}

func (n *memNotifier) total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

// scriptChecker replays a fixed status-code sequence; 0 means no response.
// Past the end it keeps returning the last code.
type scriptChecker struct {
	mu    sync.Mutex
	codes []int
	i     int
	calls int
}

func (c *scriptChecker) Check(ctx context.Context, target string) probe.CheckResult {
	c.mu.Lock()
	c.calls++
	code := 200
	if c.i < len(c.codes) {
		code = c.codes[c.i]
		c.i++
	} else if len(c.codes) > 0 {
		code = c.codes[len(c.codes)-1]
	}
	c.mu.Unlock()

	if code == 0 {
		return probe.CheckResult{Success: false, Message: "connection refused"}
	}
	return probe.CheckResult{
		Success:    code == 200,
		StatusCode: code,
		Message:    fmt.Sprintf("%d", code),
	}
}

func newTestMonitor(url string, interval int, chk probe.Checker, logs *memLog, notes *memNotifier) *Monitor {
	return New(
		domain.Site{URL: url, PollInterval: interval},
		zap.NewNop(),
		logs,
		notes,
		chk,
		"logs",
		"logs/all.log",
	)
}

// --- tests ---

func TestMonitor_FlapAndRecovery(t *testing.T) {
	logs := newMemLog()
	notes := &memNotifier{}
	chk := &scriptChecker{codes: []int{200, 200, 500, 500, 200}}
	m := newTestMonitor("https://a.test", 5, chk, logs, notes)
	ctx := context.Background()

	steps := []struct {
		status domain.Status
		fails  int
	}{
		{domain.StatusUp, 0},
		{domain.StatusUp, 0},
		{domain.StatusDown, 1},
		{domain.StatusDown, 2},
		{domain.StatusUp, 0},
	}
	for i, want := range steps {
		m.cycle(ctx)
		if m.state.Status != want.status || m.state.ConsecutiveFailures != want.fails {
			t.Fatalf("cycle %d: want %s/%d, got %s/%d",
				i+1, want.status, want.fails, m.state.Status, m.state.ConsecutiveFailures)
		}
		if i == 1 && notes.total() != 0 {
			t.Fatalf("routine success must not notify, got %v", notes.msgs)
		}
	}

	if m.state.LastSuccessAt.IsZero() {
		t.Fatalf("last success timestamp not recorded")
	}

	// 2 down notifications + exactly 1 recovery, downtime = 2 failures x 5s.
	if got := notes.count("recovered"); got != 1 {
		t.Fatalf("want 1 recovery notification, got %d: %v", got, notes.msgs)
	}
	if got := notes.count("downtime=10s"); got != 1 {
		t.Fatalf("want recovery downtime of 10s, got %v", notes.msgs)
	}
	if notes.total() != 3 {
		t.Fatalf("want 3 notifications (2 down + 1 recovery), got %v", notes.msgs)
	}

	// Per-site log: 2 failure lines + 1 recovery; aggregate: recovery only.
	site := logs.get(m.SiteLog)
	if len(site) != 3 {
		t.Fatalf("want 3 site log lines, got %v", site)
	}
	if !strings.Contains(site[0], "status 500") {
		t.Fatalf("failure line should name the observed code: %q", site[0])
	}
	agg := logs.get(m.AggregateLog)
	if len(agg) != 1 || !strings.Contains(agg[0], "back online") {
		t.Fatalf("aggregate should carry the recovery line only, got %v", agg)
	}
}

func TestMonitor_AlertOnTwelfthFailure(t *testing.T) {
	logs := newMemLog()
	notes := &memNotifier{}
	chk := &scriptChecker{codes: []int{503}}
	m := newTestMonitor("https://b.test", 10, chk, logs, notes)
	ctx := context.Background()

	for i := 0; i < 13; i++ {
		m.cycle(ctx)
	}
	if m.state.ConsecutiveFailures != 13 {
		t.Fatalf("want 13 consecutive failures, got %d", m.state.ConsecutiveFailures)
	}

	site := logs.get(m.SiteLog)
	// Failures 1-4 log ordinarily, failure 12 adds the single ALERT.
	if len(site) != 5 {
		t.Fatalf("want 4 ordinary + 1 alert line, got %d: %v", len(site), site)
	}
	alert := site[4]
	if !strings.HasPrefix(alert, "ALERT:") {
		t.Fatalf("fifth line should be the alert, got %q", alert)
	}
	if !strings.Contains(alert, "down for 120s") || !strings.Contains(alert, "12 consecutive failures") {
		t.Fatalf("alert should state cumulative downtime: %q", alert)
	}
	if !strings.Contains(alert, "last success never") {
		t.Fatalf("alert should report no prior success: %q", alert)
	}

	agg := logs.get(m.AggregateLog)
	if len(agg) != 1 || !strings.HasPrefix(agg[0], "ALERT:") {
		t.Fatalf("aggregate should carry the alert only, got %v", agg)
	}

	// Every DOWN-state line was mirrored: 4 ordinary + 1 alert.
	if notes.total() != 5 {
		t.Fatalf("want 5 notifications, got %v", notes.msgs)
	}
	if m.state.LastAlertAt.IsZero() {
		t.Fatalf("alert timestamp not recorded")
	}
}

func TestMonitor_AlertNamesLastSuccess(t *testing.T) {
	logs := newMemLog()
	notes := &memNotifier{}
	codes := []int{200}
	for i := 0; i < 12; i++ {
		codes = append(codes, 0)
	}
	chk := &scriptChecker{codes: codes}
	m := newTestMonitor("https://c.test", 5, chk, logs, notes)
	ctx := context.Background()

	for range codes {
		m.cycle(ctx)
	}

	site := logs.get(m.SiteLog)
	alert := site[len(site)-1]
	if !strings.HasPrefix(alert, "ALERT:") {
		t.Fatalf("want trailing alert line, got %v", site)
	}
	if strings.Contains(alert, "never") {
		t.Fatalf("alert should carry the real last-success time: %q", alert)
	}
	if !strings.Contains(site[1], "no response") {
		t.Fatalf("transport failure should read as no response: %q", site[1])
	}
}

func TestMonitor_RecoveryNotifiesOncePerTransition(t *testing.T) {
	logs := newMemLog()
	notes := &memNotifier{}
	chk := &scriptChecker{codes: []int{500, 200, 500, 500, 200}}
	m := newTestMonitor("https://d.test", 5, chk, logs, notes)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		m.cycle(ctx)
	}

	if got := notes.count("recovered"); got != 2 {
		t.Fatalf("want one recovery per DOWN->UP transition, got %d: %v", got, notes.msgs)
	}
	if notes.count("downtime=5s") != 1 || notes.count("downtime=10s") != 1 {
		t.Fatalf("downtime math wrong: %v", notes.msgs)
	}
}

func TestMonitors_IndependentState(t *testing.T) {
	logs := newMemLog()
	notes := &memNotifier{}
	bad := &scriptChecker{codes: []int{500}}
	good := &scriptChecker{codes: []int{200}}
	m1 := newTestMonitor("https://down.test", 5, bad, logs, notes)
	m2 := newTestMonitor("https://up.test", 5, good, logs, notes)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		m1.cycle(ctx)
		m2.cycle(ctx)
	}

	if m1.state.ConsecutiveFailures != 6 || m1.state.Status != domain.StatusDown {
		t.Fatalf("m1 state wrong: %+v", m1.state)
	}
	if m2.state.ConsecutiveFailures != 0 || m2.state.Status != domain.StatusUp {
		t.Fatalf("m1 failures leaked into m2: %+v", m2.state)
	}
	if n := logs.get(m2.SiteLog); len(n) != 0 {
		t.Fatalf("healthy site should have an empty log, got %v", n)
	}
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	logs := newMemLog()
	chk := &scriptChecker{codes: []int{200}}
	m := newTestMonitor("https://e.test", 1, chk, logs, &memNotifier{})
	m.interval = 2 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}

	chk.mu.Lock()
	calls := chk.calls
	chk.mu.Unlock()
	if calls < 2 {
		t.Fatalf("expected several probe cycles before cancel, got %d", calls)
	}
}

func TestMonitor_LogFailureDoesNotStopLoop(t *testing.T) {
	logs := newMemLog()
	logs.err = errors.New("disk full")
	chk := &scriptChecker{codes: []int{500}}
	m := newTestMonitor("https://f.test", 5, chk, logs, &memNotifier{})
	ctx := context.Background()

	m.cycle(ctx)
	m.cycle(ctx)
	if m.state.ConsecutiveFailures != 2 {
		t.Fatalf("state machine must survive log failures, got %+v", m.state)
	}
}

func TestMonitor_NotifyFailureSwallowed(t *testing.T) {
	logs := newMemLog()
	notes := &memNotifier{err: errors.New("webhook 500")}
	chk := &scriptChecker{codes: []int{500, 200}}
	m := newTestMonitor("https://g.test", 5, chk, logs, notes)
	ctx := context.Background()

	m.cycle(ctx)
	m.cycle(ctx)
	if m.state.Status != domain.StatusUp || m.state.ConsecutiveFailures != 0 {
		t.Fatalf("delivery failure must not affect the state machine: %+v", m.state)
	}
	if len(logs.get(m.SiteLog)) != 2 {
		t.Fatalf("log lines should still be written: %v", logs.get(m.SiteLog))
	}
}
