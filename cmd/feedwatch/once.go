package main

import (
	"github.com/spf13/cobra"
)

// onceCmd 执行一轮检查并发送邮件后退出，适合交给外部定时器调用
var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single duplicate check and email the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		s, err := newScheduler(cfg, "", newMailer(cfg, log), log)
		if err != nil {
			return err
		}

		// 投递失败只记录日志，不影响退出码
		s.RunOnce(cmd.Context())
		return nil
	},
}
