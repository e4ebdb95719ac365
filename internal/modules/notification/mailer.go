package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog"
)

// Message is a rendered email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type mailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[Type]mailTemplate{
	TypeVerifyEmail: {
		subject: "Email Verification",
		body: template.Must(template.New("verify").Parse(
			`<h3 style="text-align:center;">Verify Your Email</h3>` +
				`<p style="text-align:center;">Dear {{.name}}, visit this link to verify your email ` +
				`<a href="{{.link}}">{{.link}}</a></p>`)),
	},
	TypeDeleteRequest: {
		subject: "Account Deletion Confirmation",
		body: template.Must(template.New("delete").Parse(
			`<h1 style="text-align:center;">Account Deletion</h1>` +
				`<p style="text-align:center;">Dear {{.name}}, do you really want to delete your account permanently?</p>` +
				`<p style="text-align:center;"><a href="{{.confirmLink}}">Yes</a>&nbsp;&nbsp;<a href="{{.cancelLink}}">No</a></p>`)),
	},
	TypeOrderCreated: {
		subject: "New Order Placed",
		body: template.Must(template.New("order-created").Parse(
			`<h3>New Order</h3>` +
				`<p>Order <b>{{.orderId}}</b> was placed by user {{.userId}} with {{.itemCount}} item(s) ` +
				`for a total of {{.totalPrice}}.</p>`)),
	},
	TypeOrderAssigned: {
		subject: "Order Assigned To You",
		body: template.Must(template.New("order-assigned").Parse(
			`<h3>New Delivery</h3>` +
				`<p>Dear {{.name}}, order <b>{{.orderId}}</b> has been assigned to you for delivery.</p>`)),
	},
}

// Render builds the email for ev.
func Render(ev Event) (Message, error) {
	tpl, ok := templates[ev.Type]
	if !ok {
		return Message{}, fmt.Errorf("no mail template for %q", ev.Type)
	}
	var buf bytes.Buffer
	if err := tpl.body.Execute(&buf, ev.Data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", ev.Type, err)
	}
	return Message{To: ev.To, Subject: tpl.subject, HTML: buf.String()}, nil
}

// Mailer is the Handler that turns events into emails.
type Mailer struct {
	sender Sender
}

func NewMailer(sender Sender) *Mailer {
	return &Mailer{sender: sender}
}

func (m *Mailer) Handle(ctx context.Context, ev Event) error {
	if len(ev.To) == 0 {
		return nil
	}
	msg, err := Render(ev)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

// SMTPSender sends through an SMTP relay with PLAIN auth.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		from: from,
		auth: auth,
	}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	e := email.NewEmail()
	e.From = s.from
	e.To = msg.To
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTML)
	if err := e.Send(s.addr, s.auth); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes emails to the log instead of sending them.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "mailer").Logger()}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info().Strs("to", msg.To).Str("subject", msg.Subject).Str("html", msg.HTML).Msg("mail not sent: SMTP is not configured")
	return nil
}
