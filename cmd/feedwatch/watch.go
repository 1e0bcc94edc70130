package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	runOnStart    bool
	shutdownGrace time.Duration
)

// watchCmd 常驻进程，按 cron 表达式周期执行检查
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run duplicate checks on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		s, err := newScheduler(cfg, cfg.CronSpec, newMailer(cfg, log), log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s.Start(runOnStart)
		log.WithField("cron", cfg.CronSpec).Info("watching feeds")

		<-ctx.Done()
		// 恢复默认信号处理：再按一次 Ctrl-C 直接退出
		stop()
		log.WithField("grace", shutdownGrace).Info("shutting down, waiting for running check")

		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		s.Stop(graceCtx)
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&runOnStart, "run-now", false, "run one check immediately on start")
	watchCmd.Flags().DurationVar(&shutdownGrace, "shutdown-grace", 30*time.Second, "how long to wait for a running check before canceling it on shutdown")
}
