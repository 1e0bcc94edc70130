package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LJTian/feedwatch/internal/collector"
	"github.com/LJTian/feedwatch/internal/config"
	"github.com/LJTian/feedwatch/internal/mailer"
	"github.com/LJTian/feedwatch/internal/scheduler"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "feedwatch",
	Short:         "Check newsletter feeds for cross-posted articles and email a report",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to optional ini config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(onceCmd, watchCmd, previewCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("feedwatch failed")
		os.Exit(1)
	}
}

// setup 加载 .env 与配置，初始化日志；库代码只接收这里解析好的值
func setup() (*config.Config, *logrus.Entry, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	log := logrus.WithField("app", "feedwatch")
	log.WithFields(logrus.Fields{
		"feeds": len(cfg.Feeds),
		"limit": cfg.ItemLimit,
		"cron":  cfg.CronSpec,
	}).Info("config loaded")
	return cfg, log, nil
}

func newMailer(cfg *config.Config, log *logrus.Entry) *mailer.Mailer {
	return mailer.New(mailer.Config{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Sender:     cfg.EmailSender,
		Password:   cfg.EmailPassword,
		Recipients: cfg.EmailRecipients,
	}, log.WithField("component", "mailer"))
}

// newScheduler deliverer 传 nil 表示只生成报告
func newScheduler(cfg *config.Config, spec string, d scheduler.Deliverer, log *logrus.Entry) (*scheduler.Scheduler, error) {
	return scheduler.New(spec, collector.NewFeedFetcher(cfg.FetchTimeout), d, scheduler.Options{
		Sources:      cfg.Feeds,
		Limit:        cfg.ItemLimit,
		FetchTimeout: cfg.FetchTimeout,
		Concurrency:  cfg.Concurrency,
		Title:        cfg.ReportTitle,
	}, log)
}
