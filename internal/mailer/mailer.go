package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

const (
	DefaultHost    = "smtp.gmail.com"
	DefaultPort    = 587
	defaultTimeout = 30 * time.Second
)

// ErrTransport 连接、认证或发送阶段的失败都会包装成该错误
var ErrTransport = errors.New("mailer: transport failure")

// MissingConfigError 发送前检查到缺失的配置项，不会尝试发送
type MissingConfigError struct {
	Fields []string
}

func (e *MissingConfigError) Error() string {
	return "mailer: missing delivery config: " + strings.Join(e.Fields, ", ")
}

// Config 由调用方一次性组装好传入，本包不读取环境变量
type Config struct {
	Host       string
	Port       int
	Sender     string
	Password   string
	Recipients string // 逗号分隔
	Timeout    time.Duration
}

// ParseRecipients 按逗号切分，不做 trim 与校验；空段（例如末尾逗号）直接丢弃
func ParseRecipients(s string) []string {
	out := make([]string, 0)
	for _, r := range strings.Split(s, ",") {
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Missing 返回缺失的配置项名称；为空表示可以发送
func (c Config) Missing() []string {
	var missing []string
	if c.Sender == "" {
		missing = append(missing, "sender")
	}
	if len(ParseRecipients(c.Recipients)) == 0 {
		missing = append(missing, "recipients")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	return missing
}

// sender 抽象实际的 SMTP 发送，便于测试替换
type sender interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

// Mailer 通过 SMTP 投递 HTML 报告
type Mailer struct {
	cfg Config
	log *logrus.Entry

	// newSender 默认创建 go-mail 客户端
	newSender func(Config) (sender, error)
}

func New(cfg Config, log *logrus.Entry) *Mailer {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Mailer{cfg: cfg, log: log, newSender: newSMTPClient}
}

func newSMTPClient(cfg Config) (sender, error) {
	return mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Sender),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(cfg.Timeout),
	)
}

// Deliver 发送一封 HTML 邮件。配置缺失时返回 *MissingConfigError；
// 传输层错误包装为 ErrTransport，由调用方决定记录日志后继续。
func (m *Mailer) Deliver(ctx context.Context, subject, body string) error {
	password := "not set"
	if m.cfg.Password != "" {
		password = "[HIDDEN]"
	}
	m.log.WithFields(logrus.Fields{
		"sender":     m.cfg.Sender,
		"recipients": m.cfg.Recipients,
		"password":   password,
	}).Debug("delivery config")

	if missing := m.cfg.Missing(); len(missing) > 0 {
		return &MissingConfigError{Fields: missing}
	}

	recipients := ParseRecipients(m.cfg.Recipients)
	msg, err := buildMessage(m.cfg.Sender, recipients, subject, body)
	if err != nil {
		return err
	}

	client, err := m.newSender(m.cfg)
	if err != nil {
		return fmt.Errorf("%w: create client: %v", ErrTransport, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: send: %v", ErrTransport, err)
	}

	m.log.WithField("recipients", len(recipients)).Info("email sent successfully")
	return nil
}

func buildMessage(from string, to []string, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("mailer: invalid sender %q: %w", from, err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("mailer: invalid recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}
