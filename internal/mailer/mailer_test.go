package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

type fakeSender struct {
	calls int
	msgs  []*mail.Msg
	err   error
}

func (f *fakeSender) DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error {
	f.calls++
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestMailer(cfg Config, fs *fakeSender) *Mailer {
	m := New(cfg, quietLog())
	m.newSender = func(Config) (sender, error) { return fs, nil }
	return m
}

func fullConfig() Config {
	return Config{
		Sender:     "monitor@example.com",
		Password:   "secret",
		Recipients: "a@example.com,b@example.com",
	}
}

func TestParseRecipients(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a@example.com", []string{"a@example.com"}},
		{"a@example.com,b@example.com", []string{"a@example.com", "b@example.com"}},
		// 末尾逗号产生的空段被丢弃
		{"a@example.com,b@example.com,", []string{"a@example.com", "b@example.com"}},
		{",,a@example.com", []string{"a@example.com"}},
		// 不做 trim
		{"a@example.com, b@example.com", []string{"a@example.com", " b@example.com"}},
		{"", []string{}},
		{",", []string{}},
	}
	for _, c := range cases {
		if got := ParseRecipients(c.in); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("ParseRecipients(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDeliverMissingConfigDoesNotSend(t *testing.T) {
	fs := &fakeSender{}
	m := newTestMailer(Config{Recipients: ","}, fs)

	err := m.Deliver(context.Background(), "subject", "<p>body</p>")
	var missing *MissingConfigError
	if !errors.As(err, &missing) {
		t.Fatalf("Deliver error = %v, want *MissingConfigError", err)
	}
	if want := []string{"sender", "recipients", "password"}; !reflect.DeepEqual(missing.Fields, want) {
		t.Fatalf("missing fields = %v, want %v", missing.Fields, want)
	}
	if fs.calls != 0 {
		t.Fatalf("sender called %d times despite missing config", fs.calls)
	}
}

func TestDeliverOnlyPasswordMissing(t *testing.T) {
	cfg := fullConfig()
	cfg.Password = ""
	err := newTestMailer(cfg, &fakeSender{}).Deliver(context.Background(), "s", "b")
	var missing *MissingConfigError
	if !errors.As(err, &missing) || !reflect.DeepEqual(missing.Fields, []string{"password"}) {
		t.Fatalf("Deliver error = %v, want missing password", err)
	}
	if !strings.Contains(err.Error(), "password") {
		t.Fatalf("error message should name the field: %v", err)
	}
}

func TestDeliverSendsHTMLToAllRecipients(t *testing.T) {
	fs := &fakeSender{}
	cfg := fullConfig()
	cfg.Recipients += ","
	m := newTestMailer(cfg, fs)

	if err := m.Deliver(context.Background(), "Duplicate Article Check - Test", "<p>hello</p>"); err != nil {
		t.Fatalf("Deliver error: %v", err)
	}
	if fs.calls != 1 || len(fs.msgs) != 1 {
		t.Fatalf("sender calls=%d msgs=%d, want 1/1", fs.calls, len(fs.msgs))
	}

	var buf bytes.Buffer
	if _, err := fs.msgs[0].WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{
		"Subject: Duplicate Article Check - Test",
		"monitor@example.com",
		"a@example.com",
		"b@example.com",
		"text/html",
		"<p>hello</p>",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestDeliverTransportFailure(t *testing.T) {
	fs := &fakeSender{err: errors.New("535 authentication failed")}
	err := newTestMailer(fullConfig(), fs).Deliver(context.Background(), "s", "b")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Deliver error = %v, want ErrTransport", err)
	}
	if !strings.Contains(err.Error(), "535") {
		t.Fatalf("transport error should carry the reason: %v", err)
	}
}

func TestDeliverClientCreationFailure(t *testing.T) {
	m := New(fullConfig(), quietLog())
	m.newSender = func(Config) (sender, error) { return nil, errors.New("bad host") }
	if err := m.Deliver(context.Background(), "s", "b"); !errors.Is(err, ErrTransport) {
		t.Fatalf("Deliver error = %v, want ErrTransport", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	m := New(Config{}, nil)
	if m.cfg.Host != DefaultHost || m.cfg.Port != DefaultPort || m.cfg.Timeout <= 0 {
		t.Fatalf("defaults not applied: %+v", m.cfg)
	}
	if _, err := newSMTPClient(m.cfg); err != nil {
		t.Fatalf("newSMTPClient error: %v", err)
	}
}
