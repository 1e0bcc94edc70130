package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/LJTian/feedwatch/internal/collector"
	"github.com/LJTian/feedwatch/internal/mailer"
	"github.com/LJTian/feedwatch/internal/report"
)

// DefaultFeeds 默认监控的 SaskToday 通讯订阅源
var DefaultFeeds = []string{
	"https://sasktoday.ca/rss/north/saskatoon",
	"https://sasktoday.ca/rss/provincial-news/newsletter-provincial-news",
	"https://sasktoday.ca/rss/southwest/newsletter-southwest",
	"https://sasktoday.ca/rss/southeast/newsletter-southeast",
	"https://sasktoday.ca/rss/north/newsletter-north",
	"https://sasktoday.ca/rss/central/newsletter-central",
}

type Config struct {
	Feeds        []string
	ItemLimit    int
	FetchTimeout time.Duration
	Concurrency  int
	CronSpec     string
	ReportTitle  string
	LogLevel     string

	SMTPHost        string
	SMTPPort        int
	EmailSender     string
	EmailPassword   string
	EmailRecipients string
}

func defaults() *Config {
	return &Config{
		Feeds:        append([]string(nil), DefaultFeeds...),
		ItemLimit:    collector.DefaultLimit,
		FetchTimeout: 20 * time.Second,
		Concurrency:  4,
		CronSpec:     "0 8 * * *",
		ReportTitle:  report.DefaultTitle,
		LogLevel:     "info",
		SMTPHost:     mailer.DefaultHost,
		SMTPPort:     mailer.DefaultPort,
	}
}

// Load 按"默认值 -> ini 配置文件（可选）-> 环境变量"的顺序组装配置，后者覆盖前者
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	mon := f.Section("monitor")
	if k := mon.Key("feeds"); k.String() != "" {
		c.Feeds = splitList(k.String())
	}
	if mon.HasKey("limit") {
		n, err := mon.Key("limit").Int()
		if err != nil {
			return fmt.Errorf("config %s: monitor.limit: %w", path, err)
		}
		c.ItemLimit = n
	}
	if mon.HasKey("fetch_timeout") {
		d, err := mon.Key("fetch_timeout").Duration()
		if err != nil {
			return fmt.Errorf("config %s: monitor.fetch_timeout: %w", path, err)
		}
		c.FetchTimeout = d
	}
	if mon.HasKey("concurrency") {
		n, err := mon.Key("concurrency").Int()
		if err != nil {
			return fmt.Errorf("config %s: monitor.concurrency: %w", path, err)
		}
		c.Concurrency = n
	}
	c.CronSpec = mon.Key("cron").MustString(c.CronSpec)
	c.ReportTitle = mon.Key("title").MustString(c.ReportTitle)
	c.LogLevel = mon.Key("log_level").MustString(c.LogLevel)

	smtp := f.Section("smtp")
	c.SMTPHost = smtp.Key("host").MustString(c.SMTPHost)
	if smtp.HasKey("port") {
		n, err := smtp.Key("port").Int()
		if err != nil {
			return fmt.Errorf("config %s: smtp.port: %w", path, err)
		}
		c.SMTPPort = n
	}
	c.EmailSender = smtp.Key("sender").MustString(c.EmailSender)
	c.EmailRecipients = smtp.Key("recipients").MustString(c.EmailRecipients)
	c.EmailPassword = smtp.Key("password").MustString(c.EmailPassword)
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FEEDWATCH_FEEDS"); v != "" {
		c.Feeds = splitList(v)
	}
	var err error
	if c.ItemLimit, err = getEnvInt("FEEDWATCH_ITEM_LIMIT", c.ItemLimit); err != nil {
		return err
	}
	if c.Concurrency, err = getEnvInt("FEEDWATCH_CONCURRENCY", c.Concurrency); err != nil {
		return err
	}
	if c.SMTPPort, err = getEnvInt("SMTP_PORT", c.SMTPPort); err != nil {
		return err
	}
	if v := os.Getenv("FEEDWATCH_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FEEDWATCH_FETCH_TIMEOUT: %w", err)
		}
		c.FetchTimeout = d
	}

	c.CronSpec = getEnv("CRON_SPEC", c.CronSpec)
	c.ReportTitle = getEnv("REPORT_TITLE", c.ReportTitle)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.EmailSender = getEnv("EMAIL_SENDER", c.EmailSender)
	c.EmailRecipients = getEnv("EMAIL_RECIPIENTS", c.EmailRecipients)
	c.EmailPassword = getEnv("EMAIL_PASSWORD", c.EmailPassword)
	return nil
}

// validate 只校验采集相关的配置；邮件配置缺失不影响生成报告，由投递阶段处理
func (c *Config) validate() error {
	if len(c.Feeds) == 0 {
		return fmt.Errorf("config: no feeds configured")
	}
	if c.ItemLimit <= 0 {
		return fmt.Errorf("config: item limit must be > 0, got %d", c.ItemLimit)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("config: concurrency must be > 0, got %d", c.Concurrency)
	}
	return nil
}

// splitList 解析逗号分隔的源列表，去掉空白与空项
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
