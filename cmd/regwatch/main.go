package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"regwatch/internal/config"
	"regwatch/internal/dataset"
	"regwatch/internal/monitor"
	"regwatch/internal/notify"
	"regwatch/internal/schedule"
	"regwatch/internal/state"
	kit "regwatch/internal/transport"
	"regwatch/internal/transport/telegram"
	logx "regwatch/pkg/logx"
)

func main() {
	var cfgPath, envPath string
	flag.StringVar(&cfgPath, "config", "", "optional path to yaml config")
	flag.StringVar(&envPath, "env", "", "optional path to .env file")
	flag.Parse()

	cfg, err := config.Load(cfgPath, envPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	defer logSvc.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	adapter, err := telegram.New(telegram.Config{Token: cfg.Telegram.Token}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		// A bad token is a configuration problem, not a runtime one.
		fmt.Fprintln(os.Stderr, "telegram:", err)
		os.Exit(1)
	}

	store, err := state.Open(state.Config{Driver: cfg.State.Driver, Path: cfg.State.Path}, log.With(logx.String("comp", "state")))
	if err != nil {
		fmt.Fprintln(os.Stderr, "state:", err)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.New(notify.Config{
		Target:     kit.ChatTarget{ChatID: cfg.Telegram.ChatID, ThreadID: cfg.Telegram.ThreadID},
		RatePerSec: cfg.NotifyRatePerSec,
	}, adapter, log.With(logx.String("comp", "notify")))

	fetcher := dataset.NewFetcher(log.With(logx.String("comp", "dataset")))

	if cfg.Schedule == "" {
		// Run-once mode: an external scheduler owns the cadence.
		runner := monitor.NewRunner(monitor.Config{DatasetURL: cfg.DatasetURL, TargetID: cfg.TargetID},
			fetcher, store, notifier, log)
		runner.Run(ctx)
		return
	}

	// Daemon mode: internal cron trigger. The run config is held behind an
	// atomic pointer so a config-file reload applies on the next tick without
	// a restart (token/schedule changes still need one). Logging config is
	// applied immediately via the logx service.
	current := &atomic.Pointer[config.Config]{}
	current.Store(&cfg)

	if cfgPath != "" {
		if err := config.Watch(ctx, cfgPath, log.With(logx.String("comp", "config")), func(next config.Config) {
			prev := current.Load()
			if next.Schedule != prev.Schedule || next.Telegram.Token != prev.Telegram.Token {
				log.Warn("schedule/token changes require a restart to take effect")
			}
			logSvc.Apply(logx.Config{
				Level:   next.Logging.Level,
				Console: next.Logging.Console,
				File: logx.FileConfig{
					Enabled: next.Logging.File.Enabled,
					Path:    next.Logging.File.Path,
				},
			})
			current.Store(&next)
		}); err != nil {
			log.Warn("config watch unavailable", logx.Err(err))
		}
	}

	sched := schedule.New(log.With(logx.String("comp", "schedule")))
	err = sched.Start(cfg.Schedule, func() {
		c := current.Load()
		runner := monitor.NewRunner(monitor.Config{DatasetURL: c.DatasetURL, TargetID: c.TargetID},
			fetcher, store, notifier, log)
		runner.Run(ctx)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "schedule:", err)
		os.Exit(1)
	}

	<-ctx.Done()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	sched.Stop(stopCtx)
}
