package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PowerWallet/internal/config"
	"PowerWallet/internal/notifier"
	"PowerWallet/internal/observability"
	"PowerWallet/internal/oracle"
	"PowerWallet/internal/recorder"
	"PowerWallet/internal/scheduler"
	"PowerWallet/internal/strategy"
	"PowerWallet/internal/wallet"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] PowerWallet starting...")

	if err := config.LoadDotEnv(); err != nil {
		log.Printf("[WARN] %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init oracle
	httpOracle := oracle.NewHTTPOracle(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Proxy)
	log.Printf("[INFO] oracle: %s (%s)", httpOracle.Name(), cfg.Oracle.BaseURL)

	// Init wallets and engines
	var wallets []*scheduler.Wallet
	for _, wc := range cfg.Wallets {
		w, err := buildWallet(wc, httpOracle)
		if err != nil {
			log.Fatalf("[FATAL] init wallet %s: %v", wc.ID, err)
		}
		log.Printf("[INFO] wallet %s: strategy=%s %s/%s", w.ID, wc.Strategy, wc.Stable.Symbol, wc.Risk.Symbol)
		wallets = append(wallets, w)
	}

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	metrics := observability.NewMetrics("")
	var metricsSrv *http.Server
	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("[INFO] metrics listening on %s", cfg.Metrics.Listen)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[ERROR] metrics server: %v", err)
			}
		}()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, wallets, tn, rec, metrics)
	if err := sched.RegisterAll(cfg.Schedule.EvaluateCron, cfg.Schedule.DepositCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, evaluating now")
		go sched.RunEvaluateNow()
	}

	log.Println("[INFO] PowerWallet is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	if metricsSrv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	log.Println("[INFO] PowerWallet stopped")
}

func buildWallet(wc config.WalletConfig, o *oracle.HTTPOracle) (*scheduler.Wallet, error) {
	variant, scfg, err := wc.StrategyConfig()
	if err != nil {
		return nil, err
	}
	initialStable, initialRisk, err := wc.InitialBalances()
	if err != nil {
		return nil, err
	}
	deposit, err := wc.Deposit()
	if err != nil {
		return nil, err
	}
	mgr, err := wallet.NewManager(wc.StateFile, wc.ID, wc.Stable, wc.Risk, initialStable, initialRisk)
	if err != nil {
		return nil, err
	}
	// Config changes accepted at runtime win over the YAML defaults.
	scfg, err = mgr.StrategyConfig(scfg)
	if err != nil {
		log.Printf("[WARN] %v, falling back to configured strategy", err)
	}
	eng, err := strategy.NewEngine(variant, scfg, mgr.CadenceState())
	if err != nil {
		return nil, err
	}
	return &scheduler.Wallet{
		ID:            wc.ID,
		Engine:        eng,
		Manager:       mgr,
		Collector:     oracle.NewCollector(o, o, wc.Stable, wc.Risk),
		DepositAmount: deposit,
	}, nil
}
