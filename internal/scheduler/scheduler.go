package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"PyramidSentinel/internal/collector"
	"PyramidSentinel/internal/config"
	"PyramidSentinel/internal/model"
	"PyramidSentinel/internal/notifier"
	"PyramidSentinel/internal/pyramid"
	"PyramidSentinel/internal/recorder"
)

const sendRetries = 3

// Scheduler refreshes the quote on a cron schedule, feeds every fresh price
// into a new engine computation and keeps the latest result.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Position  config.PositionConfig
	Recorder  recorder.Recorder
	Notifier  notifier.Notifier // nil disables notifications
	Ctx       context.Context

	log zerolog.Logger

	mu              sync.RWMutex
	latest          *model.PlanSnapshot
	failures        int
	invalidNotified bool
}

// cronLogger routes cron's own messages, including recovered job panics, to zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// NewScheduler creates a new Scheduler. A panicking job is logged and
// recovered so one bad response cannot stop the daemon.
func NewScheduler(ctx context.Context, col *collector.Collector, pos config.PositionConfig,
	rec recorder.Recorder, n notifier.Notifier, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		Collector: col,
		Position:  pos,
		Recorder:  rec,
		Notifier:  n,
		Ctx:       ctx,
		log:       log,
	}
}

// RegisterAll registers the refresh and report tasks.
func (s *Scheduler) RegisterAll(refreshCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes a refresh immediately (RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

// Latest returns the most recent successful refresh.
func (s *Scheduler) Latest() (*model.PlanSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// Failures returns the number of consecutive failed refreshes.
func (s *Scheduler) Failures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures
}

func (s *Scheduler) refreshTask() {
	_, _ = s.refreshTracked(s.Ctx)
}

// refreshTracked runs Refresh and keeps the failure counter and the
// stop-breach alert up to date.
func (s *Scheduler) refreshTracked(ctx context.Context) (*model.PlanSnapshot, error) {
	snap, err := s.Refresh(ctx)
	if err == nil {
		return snap, nil
	}

	s.mu.Lock()
	s.failures++
	failures := s.failures
	s.mu.Unlock()

	var verr *pyramid.ValidationError
	if errors.As(err, &verr) {
		s.log.Warn().Err(err).Int("consecutive_failures", failures).Msg("plan rejected")
		s.notifyInvalidOnce(err)
		return nil, err
	}
	s.log.Error().Err(err).Int("consecutive_failures", failures).Msg("refresh failed")
	return nil, err
}

// Refresh collects a fresh quote, computes the plan for it and records both.
func (s *Scheduler) Refresh(ctx context.Context) (*model.PlanSnapshot, error) {
	q, err := s.Collector.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordQuote(q); err != nil {
		s.log.Error().Err(err).Msg("record quote")
	}

	plan, err := pyramid.Compute(s.Position.Input(q.Price))
	if err != nil {
		return nil, fmt.Errorf("compute plan at %v: %w", q.Price, err)
	}
	if _, err := s.Recorder.RecordPlan(q.Symbol, plan); err != nil {
		s.log.Error().Err(err).Msg("record plan")
	}

	snap := &model.PlanSnapshot{Quote: q, Plan: plan, ComputedAt: time.Now()}
	s.mu.Lock()
	if s.failures > 0 {
		s.log.Info().Int("after_failures", s.failures).Msg("refresh recovered")
	}
	s.latest = snap
	s.failures = 0
	s.invalidNotified = false
	s.mu.Unlock()

	s.log.Debug().
		Str("symbol", q.Symbol).
		Float64("price", q.Price).
		Float64("breakeven", plan.Risk.BreakevenPrice).
		Msg("plan refreshed")
	return snap, nil
}

// notifyInvalidOnce alerts once per run of validation failures, e.g. when the
// price has fallen through the stop-loss.
func (s *Scheduler) notifyInvalidOnce(err error) {
	s.mu.Lock()
	already := s.invalidNotified
	s.invalidNotified = true
	s.mu.Unlock()
	if already {
		return
	}
	s.trySend(fmt.Sprintf("❌ 无法生成加仓计划: %v", err))
}

func (s *Scheduler) reportTask() {
	snap, ok := s.Latest()
	if !ok {
		s.log.Warn().Msg("no plan to report yet")
		return
	}
	s.trySend(notifier.FormatQuote(snap.Quote) + "\n" + notifier.FormatPlan(snap.Quote.Symbol, snap.Plan))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "/plan", "查看计划":
		snap, ok := s.Latest()
		if !ok {
			return "暂无计划，等待行情刷新"
		}
		return notifier.FormatPlan(snap.Quote.Symbol, snap.Plan)
	case "/quote", "查看行情":
		snap, err := s.refreshTracked(s.Ctx)
		if err != nil {
			return fmt.Sprintf("获取行情失败: %v", err)
		}
		return notifier.FormatQuote(snap.Quote)
	case "/calc":
		return s.handleCalc(fields[1:])
	default:
		return helpText
	}
}

const helpText = "可用命令:\n• /plan 查看计划\n• /quote 刷新行情\n• /calc 当前价 止损价 资金 [目标价]"

func (s *Scheduler) handleCalc(args []string) string {
	if len(args) < 3 || len(args) > 4 {
		return "用法: /calc 当前价 止损价 资金 [目标价]"
	}
	vals := make([]float64, 4)
	for i, a := range args {
		d, err := decimal.NewFromString(a)
		if err != nil {
			return fmt.Sprintf("请输入有效的数字: %q", a)
		}
		vals[i], _ = d.Float64()
	}
	plan, err := pyramid.Compute(model.StrategyInput{
		CurrentPrice: vals[0],
		StopLoss:     vals[1],
		Capital:      vals[2],
		TargetPrice:  vals[3],
	})
	if err != nil {
		return fmt.Sprintf("输入错误: %v", err)
	}
	return notifier.FormatPlan("", plan)
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
