package monitor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/logfile"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/probe"
)

// Supervisor starts one Monitor goroutine per configured site and
// coordinates shutdown. It holds no per-site state; its only shared
// resources are the log writer and the notification sink.
type Supervisor struct {
	Logger          *zap.Logger
	Logs            LogWriter
	Notifier        notify.Notifier
	Checker         probe.Checker
	LogDir          string
	AggregateLog    string
	TruncateOnStart bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewSupervisor(
	logger *zap.Logger,
	logs LogWriter,
	notifier notify.Notifier,
	checker probe.Checker,
	logDir string,
	aggregateLog string,
	truncateOnStart bool,
) *Supervisor {
	return &Supervisor{
		Logger:          logger,
		Logs:            logs,
		Notifier:        notifier,
		Checker:         checker,
		LogDir:          logDir,
		AggregateLog:    aggregateLog,
		TruncateOnStart: truncateOnStart,
	}
}

// Run spawns every monitor without blocking between spawns, then blocks
// until all of them have returned. Before the first probe it either wipes
// the per-site logs (TruncateOnStart) or leaves history untouched, and
// appends the "started" record to the aggregate log.
func (s *Supervisor) Run(ctx context.Context, sites []domain.Site) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if s.TruncateOnStart {
		for _, site := range sites {
			p := logfile.SitePath(s.LogDir, site.URL)
			if err := s.Logs.Truncate(p); err != nil {
				s.Logger.Warn("truncate_error", zap.String("path", p), zap.Error(err))
			}
		}
	}
	s.append(fmt.Sprintf("monitoring started (%d sites)", len(sites)))
	s.Logger.Info("supervisor_started", zap.Int("sites", len(sites)))

	for _, site := range sites {
		m := New(site, s.Logger, s.Logs, s.Notifier, s.Checker, s.LogDir, s.AggregateLog)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			m.Run(ctx)
		}()
	}
	s.wg.Wait()
}

// Shutdown appends the shutdown record and cancels every monitor. In-flight
// probes are abandoned, not awaited; callers may exit right after. Safe to
// call more than once.
func (s *Supervisor) Shutdown() {
	s.once.Do(func() {
		s.append("monitoring stopped")
		s.Logger.Info("supervisor_stopped")
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		s.mu.Unlock()
	})
}

func (s *Supervisor) append(msg string) {
	if err := s.Logs.Append(s.AggregateLog, msg); err != nil {
		s.Logger.Warn("log_append_error", zap.String("path", s.AggregateLog), zap.Error(err))
	}
}
