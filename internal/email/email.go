package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"sort"

	"github.com/rs/zerolog/log"
)

type Sender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string

	// send is replaced in tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(host, port, username, password, from string) *Sender {
	return &Sender{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		send:     smtp.SendMail,
	}
}

const layout = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px; }
        .header { background-color: #2563eb; color: white; padding: 10px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { padding: 20px; }
        .button { display: inline-block; padding: 10px 20px; background-color: #3b82f6; color: white; text-decoration: none; border-radius: 4px; font-weight: bold; }
        .footer { margin-top: 20px; font-size: 0.8em; color: #777; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
        </div>
        <div class="content">
            <p>Hi {{.Name}},</p>
            <p>{{.Body}}</p>
            <p style="text-align: center;">
                <a href="{{.Link}}" class="button">{{.Action}}</a>
            </p>
            <p>If you didn't request this, you can safely ignore this email.</p>
        </div>
        <div class="footer">
            <p>&copy; InstaMunicipal</p>
        </div>
    </div>
</body>
</html>
`

var page = template.Must(template.New("email").Parse(layout))

type message struct {
	Title  string
	Name   string
	Body   string
	Link   string
	Action string
}

// SendConfirmation mails the account confirmation link sent after registration.
func (s *Sender) SendConfirmation(to, name, link string) error {
	if name == "" {
		name = "there"
	}
	return s.deliver(to, "Confirm your InstaMunicipal account", message{
		Title:  "Welcome to InstaMunicipal!",
		Name:   name,
		Body:   "Thanks for joining your municipal network. Please confirm your email address to activate your account.",
		Link:   link,
		Action: "Confirm Email",
	})
}

// SendRecovery mails the password reset link.
func (s *Sender) SendRecovery(to, link string) error {
	return s.deliver(to, "Reset your InstaMunicipal password", message{
		Title:  "Password reset",
		Name:   "there",
		Body:   "We received a request to reset your password. The link below is valid for one hour.",
		Link:   link,
		Action: "Reset Password",
	})
}

func (s *Sender) deliver(to, subject string, m message) error {
	var body bytes.Buffer
	if err := page.Execute(&body, m); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	// Email headers
	headers := map[string]string{
		"From":         s.From,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=\"UTF-8\"",
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msg bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&msg, "%s: %s\r\n", k, headers[k])
	}
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	// Without a host the mail is only logged, for development
	if s.Host == "" {
		log.Info().Str("to", to).Str("subject", subject).Str("link", m.Link).Msg("mock email")
		return nil
	}

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)
	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(addr, auth, s.From, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
