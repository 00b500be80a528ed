package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"PowerWallet/internal/cadence"
	"PowerWallet/internal/model"
	"PowerWallet/internal/notifier"
	"PowerWallet/internal/observability"
	"PowerWallet/internal/oracle"
	"PowerWallet/internal/recorder"
	"PowerWallet/internal/strategy"
	"PowerWallet/internal/wallet"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Notifier delivers formatted messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Wallet bundles everything the scheduler drives for one paper wallet.
type Wallet struct {
	ID            string
	Engine        *strategy.Engine
	Manager       *wallet.Manager
	Collector     *oracle.Collector
	DepositAmount decimal.Decimal // stable base units per deposit tick, zero disables

	mu sync.Mutex // serialises evaluate/apply/notify for this wallet
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Wallets  []*Wallet
	Notifier Notifier
	Recorder recorder.Recorder
	Metrics  *observability.Metrics
	Ctx      context.Context
	Now      func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, wallets []*Wallet, n Notifier, rec recorder.Recorder, m *observability.Metrics) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Wallets:  wallets,
		Notifier: n,
		Recorder: rec,
		Metrics:  m,
		Ctx:      ctx,
		Now:      time.Now,
	}
}

// RegisterAll registers the evaluate task and, when depositCron is set, the
// deposit task.
func (s *Scheduler) RegisterAll(evaluateCron, depositCron string) error {
	if _, err := s.Cron.AddFunc(evaluateCron, s.evaluateAll); err != nil {
		return fmt.Errorf("register evaluate task: %w", err)
	}
	if depositCron != "" {
		if _, err := s.Cron.AddFunc(depositCron, s.depositAll); err != nil {
			return fmt.Errorf("register deposit task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunEvaluateNow evaluates every wallet immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunEvaluateNow() {
	s.evaluateAll()
}

func (s *Scheduler) evaluateAll() {
	log.Println("[INFO] running evaluate task")
	for _, w := range s.Wallets {
		if _, err := s.Evaluate(w); err != nil {
			log.Printf("[ERROR] evaluate wallet %s: %v", w.ID, err)
		}
	}
}

// Evaluate runs one evaluation for w and settles the proposed trade, if any.
// Cadence is only advanced after the wallet applied the trade.
func (s *Scheduler) Evaluate(w *Wallet) (*model.Decision, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := s.Now()
	stableBal, riskBal := w.Manager.Balances()
	in, err := w.Collector.Snapshot(s.Ctx, stableBal, riskBal)
	if err != nil {
		s.metrics(func(m *observability.Metrics) { m.OracleErrors.WithLabelValues(w.Collector.Prices.Name()).Inc() })
		s.trySend(fmt.Sprintf("❌ %s 行情获取失败: %v", w.ID, err))
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	d, err := w.Engine.Evaluate(in, now)
	if err != nil {
		s.metrics(func(m *observability.Metrics) { m.EvaluationErrors.WithLabelValues(w.ID).Inc() })
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	log.Printf("[INFO] wallet %s: branch=%s nav=%s weight=%dbps trades=%d", w.ID, d.Branch, d.NavUSD, d.WeightBps, len(d.Trades))

	decisionID := uuid.NewString()
	if err := s.Recorder.RecordEvaluation(&recorder.Evaluation{
		ID:            decisionID,
		WalletID:      w.ID,
		StrategyID:    w.Engine.Variant().ID,
		At:            now,
		Input:         in,
		Decision:      d,
		StableBalance: stableBal,
		RiskBalance:   riskBal,
	}); err != nil {
		log.Printf("[ERROR] record evaluation: %v", err)
	}
	s.metrics(func(m *observability.Metrics) { m.ObserveDecision(w.ID, d, now.Unix()) })

	cfg := w.Engine.Config()
	report := notifier.FormatDecision(w.ID, cfg, in, d, now)

	trade, ok := d.Trade()
	if !d.NeedsRebalance || !ok {
		if d.Branch != model.BranchCadence {
			s.trySend(report)
		}
		return d, nil
	}

	price := in.Risk[0].Price
	bought, err := w.Manager.Apply(trade, price)
	if err != nil {
		s.trySend(report + fmt.Sprintf("\n❌ 成交失败: %v", err))
		return d, fmt.Errorf("apply %s: %w", trade.Kind, err)
	}
	w.Engine.NotifyExecuted(now)
	w.Manager.MarkExecuted(now)

	if err := s.Recorder.RecordExecution(&recorder.Execution{
		DecisionID: decisionID,
		WalletID:   w.ID,
		At:         now,
		Trade:      trade,
		Bought:     bought,
		Price:      price,
	}); err != nil {
		log.Printf("[ERROR] record execution: %v", err)
	}
	if usd, err := strategy.TradeUSD(cfg, trade, price); err == nil {
		s.metrics(func(m *observability.Metrics) { m.ObserveExecution(w.ID, trade.Kind, usd) })
	}

	s.trySend(report + "\n" + notifier.FormatExecution(w.ID, trade, bought))
	return d, nil
}

func (s *Scheduler) depositAll() {
	log.Println("[INFO] running deposit task")
	for _, w := range s.Wallets {
		if w.DepositAmount.Sign() <= 0 {
			continue
		}
		if err := s.Deposit(w); err != nil {
			log.Printf("[ERROR] deposit wallet %s: %v", w.ID, err)
		}
	}
}

// Deposit credits the wallet's periodic deposit.
func (s *Scheduler) Deposit(w *Wallet) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := s.Now()
	if err := w.Manager.Deposit(w.DepositAmount, now); err != nil {
		return err
	}
	balance, _ := w.Manager.Balances()
	if err := s.Recorder.RecordDeposit(&recorder.Deposit{
		WalletID:     w.ID,
		At:           now,
		Amount:       w.DepositAmount,
		BalanceAfter: balance,
	}); err != nil {
		log.Printf("[ERROR] record deposit: %v", err)
	}
	s.metrics(func(m *observability.Metrics) { m.Deposits.WithLabelValues(w.ID).Inc() })
	s.trySend(notifier.FormatDeposit(w.ID, w.DepositAmount, balance, w.Engine.Config().StableAsset))
	return nil
}

const helpText = "可用命令:\n" +
	"• /status [钱包] 钱包状态\n" +
	"• /evaluate 立即评估\n" +
	"• /config [钱包] 策略参数\n" +
	"• /threshold on|off [钱包] 阈值再平衡开关\n" +
	"• /frequency 168h [钱包] 定投周期\n" +
	"• /bands 7000 2000 500 [钱包] 目标/区间/上限(bps)"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	args := fields[1:]

	switch fields[0] {
	case "/status", "查看钱包":
		return s.each(args, 0, func(w *Wallet) string {
			st := w.Manager.GetState()
			cfg := w.Engine.Config()
			return notifier.FormatWalletStatus(st, cfg, cadence.NextDue(w.Engine.State(), cfg.Frequency))
		})
	case "/evaluate", "立即评估":
		s.evaluateAll()
		return ""
	case "/config", "查看参数":
		return s.each(args, 0, func(w *Wallet) string {
			return notifier.FormatConfig(w.Engine.Variant(), w.Engine.Config())
		})
	case "/threshold":
		if len(args) < 1 || (args[0] != "on" && args[0] != "off") {
			return "用法: /threshold on|off [钱包]"
		}
		enabled := args[0] == "on"
		return s.each(args, 1, func(w *Wallet) string {
			old := w.Engine.Config().ThresholdRebalancing
			err := w.Engine.SetThresholdRebalancing(enabled)
			s.recordChange(w, "threshold_rebalancing", strconv.FormatBool(old), strconv.FormatBool(enabled), err)
			if err != nil {
				return fmt.Sprintf("❌ %s: %v", w.ID, err)
			}
			return fmt.Sprintf("✅ %s 阈值再平衡: %v", w.ID, enabled)
		})
	case "/frequency":
		if len(args) < 1 {
			return "用法: /frequency 168h [钱包]"
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Sprintf("❌ 无效周期: %v", err)
		}
		return s.each(args, 1, func(w *Wallet) string {
			old := w.Engine.Config().Frequency
			err := w.Engine.SetFrequency(d)
			s.recordChange(w, "frequency", old.String(), d.String(), err)
			if err != nil {
				return fmt.Sprintf("❌ %s: %v", w.ID, err)
			}
			return fmt.Sprintf("✅ %s 定投周期: %s", w.ID, d)
		})
	case "/bands":
		if len(args) < 3 {
			return "用法: /bands 目标 区间 上限 [钱包]"
		}
		var v [3]int64
		for i := range v {
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				return fmt.Sprintf("❌ 无效参数 %q", args[i])
			}
			v[i] = n
		}
		return s.each(args, 3, func(w *Wallet) string {
			cfg := w.Engine.Config()
			old := fmt.Sprintf("%d/%d/%d", cfg.TargetWeightBps, cfg.BandDeltaBps, cfg.RebalanceCapBps)
			err := w.Engine.SetBands(v[0], v[1], v[2])
			s.recordChange(w, "bands", old, fmt.Sprintf("%d/%d/%d", v[0], v[1], v[2]), err)
			if err != nil {
				return fmt.Sprintf("❌ %s: %v", w.ID, err)
			}
			return fmt.Sprintf("✅ %s 区间已更新", w.ID)
		})
	default:
		return helpText
	}
}

// each applies fn to the wallet named by args[idx], or to every wallet when
// no id is given.
func (s *Scheduler) each(args []string, idx int, fn func(w *Wallet) string) string {
	if len(args) > idx {
		id := args[idx]
		for _, w := range s.Wallets {
			if w.ID == id {
				return fn(w)
			}
		}
		return fmt.Sprintf("❌ 未找到钱包 %s", id)
	}
	parts := make([]string, 0, len(s.Wallets))
	for _, w := range s.Wallets {
		parts = append(parts, fn(w))
	}
	return strings.Join(parts, "\n")
}

// recordChange logs a config command and persists the engine config when it
// was accepted.
func (s *Scheduler) recordChange(w *Wallet, field, oldValue, newValue string, err error) {
	evt := &recorder.ConfigChange{
		WalletID: w.ID,
		At:       s.Now(),
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
		Accepted: err == nil,
	}
	if err != nil {
		evt.Reason = err.Error()
		s.metrics(func(m *observability.Metrics) { m.ConfigRejections.WithLabelValues(field).Inc() })
		log.Printf("[WARN] wallet %s rejected %s=%s: %v", w.ID, field, newValue, err)
	} else if serr := w.Manager.SaveStrategy(w.Engine.Config()); serr != nil {
		log.Printf("[ERROR] persist %s change for wallet %s: %v", field, w.ID, serr)
	}
	if err := s.Recorder.RecordConfigChange(evt); err != nil {
		log.Printf("[ERROR] record config change: %v", err)
	}
}

func (s *Scheduler) metrics(fn func(m *observability.Metrics)) {
	if s.Metrics != nil {
		fn(s.Metrics)
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
