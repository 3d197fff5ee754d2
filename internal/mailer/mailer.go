package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/kamaujm/tikiti/config"
	"github.com/kamaujm/tikiti/internal/models"
)

const ticketTemplate = `<html>
<body>
  <h2>Your ticket for {{.EventName}}</h2>
  <p>Thank you for your purchase. Present the QR code below at the venue.</p>
  <ul>
    <li>Ticket number: <strong>{{.TicketNumber}}</strong></li>
    <li>Verification code: <strong>{{.VerificationCode}}</strong></li>
    <li>Venue: {{.Location}}</li>
    <li>Starts: {{.StartTime}}</li>
  </ul>
  <img src="{{.QrCodeData}}" alt="ticket QR code" />
</body>
</html>`

var ticketTpl = template.Must(template.New("ticket").Parse(ticketTemplate))

type Mailer struct {
	cfg *config.SMTPConfig
}

func NewMailer(cfg *config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendTicket emails the issued ticket. In development setups without SMTP
// configured the send is skipped with a warning so issuance still succeeds.
func (m *Mailer) SendTicket(to string, ticket *models.Ticket, event *models.Event) error {
	if m.cfg.Host == "" || m.cfg.Sender == "" {
		slog.Warn("SMTP not configured, skipping ticket email", "to", to, "ticket_number", ticket.TicketNumber)
		return nil
	}

	var body bytes.Buffer
	data := map[string]string{
		"EventName":        event.Name,
		"TicketNumber":     ticket.TicketNumber,
		"VerificationCode": ticket.VerificationCode,
		"Location":         event.Location,
		"StartTime":        event.StartTime.Format("Mon, 02 Jan 2006 15:04"),
		"QrCodeData":       ticket.QrCodeData,
	}
	if err := ticketTpl.Execute(&body, data); err != nil {
		return fmt.Errorf("mailer: failed to render ticket email: %w", err)
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", m.cfg.Sender))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: Your ticket for %s\r\n", event.Name))
	msg.WriteString("MIME-version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.Sender, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("mailer: failed to send ticket email: %w", err)
	}

	slog.Info("ticket email sent", "to", to, "ticket_number", ticket.TicketNumber)
	return nil
}
