// Package sender 通知发送实现：日志、SMTP、Kafka
package sender

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/wyfcoding/llcformation/pkg/logger"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender 通过 SMTP 发送邮件
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	sendMail sendMailFunc
}

// NewSMTPSender 创建 SMTP 发送器
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		sendMail: smtp.SendMail,
	}
}

// Send 实现 domain.Sender
func (s *SMTPSender) Send(ctx context.Context, target string, subject string, content string) error {
	if strings.ContainsAny(target, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("invalid mail header for %q", target)
	}

	msg := buildMessage(s.from, target, subject, content, time.Now())

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	done := logger.LogDuration(ctx, "email sent", "target", target, "subject", subject)
	if err := s.sendMail(addr, auth, s.from, []string{target}, msg); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", target, err)
	}
	done()
	return nil
}

func buildMessage(from, to, subject, body string, at time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + at.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
