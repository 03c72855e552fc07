package client

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

type MailClient struct {
	host     string
	port     string
	user     string
	password string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailClient(host string, port string, user string, password string) *MailClient {
	return &MailClient{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		send:     smtp.SendMail,
	}
}

// SendHTML delivers a single html message.
func (c *MailClient) SendHTML(from string, to string, subject string, body string) error {
	var auth smtp.Auth
	if c.user != "" {
		auth = smtp.PlainAuth("", c.user, c.password, c.host)
	}

	message := BuildHTMLMessage(from, to, subject, body)
	err := c.send(net.JoinHostPort(c.host, c.port), auth, from, []string{to}, message)
	if err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

func BuildHTMLMessage(from string, to string, subject string, body string) []byte {
	var builder strings.Builder
	builder.WriteString("From: " + from + "\r\n")
	builder.WriteString("To: " + to + "\r\n")
	builder.WriteString("Subject: " + subject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(body)
	return []byte(builder.String())
}
