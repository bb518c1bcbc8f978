package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"wedbook/internal/escrow"
	"wedbook/internal/shared/config"
	"wedbook/pkg/logger"

	"github.com/wneessen/go-mail"
)

// Mailer delivers one rendered email
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPMailer sends through an SMTP relay with go-mail
type SMTPMailer struct {
	client   *mail.Client
	from     string
	fromName string
}

func NewSMTPMailer(cfg config.EmailConfig) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUsername),
		mail.WithPassword(cfg.SMTPPassword),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.FromEmail, fromName: "WedBook"}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, email EmailMessage) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if email.ToName != "" {
		if err := msg.AddToFormat(email.ToName, email.To); err != nil {
			return fmt.Errorf("invalid recipient: %w", err)
		}
	} else if err := msg.To(email.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	if email.HTMLBody != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogMailer logs emails instead of sending them; used when no SMTP host is set
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log.WithComponent("notifications.mailer")}
}

func (m *LogMailer) Send(ctx context.Context, email EmailMessage) error {
	m.log.InfoContext(ctx, "email (smtp disabled)",
		slog.String("to", email.To),
		slog.String("subject", email.Subject))
	return nil
}

var bookingConfirmedHTML = template.Must(template.New("booking_confirmed").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Your booking is confirmed</h2>
  <p>Hi {{.Name}},</p>
  <p>We have received your payment for the {{.EventType}} on <strong>{{.EventDate}}</strong>.</p>
  <table cellpadding="4">
    <tr><td>Booking</td><td>{{.BookingID}}</td></tr>
    <tr><td>Guests</td><td>{{.GuestCount}}</td></tr>
    <tr><td>Paid</td><td>{{.AmountPaid}} {{.Currency}}</td></tr>
    <tr><td>Total</td><td>{{.TotalAmount}} {{.Currency}}</td></tr>
    <tr><td>Payment reference</td><td>{{.PaymentID}}</td></tr>
  </table>
  {{if .InEscrow}}<p>Your payment is held in escrow and released to the vendor after the event.</p>{{end}}
  <p>The venue will confirm your booking shortly.</p>
</body>
</html>`))

type bookingConfirmedView struct {
	Name        string
	BookingID   string
	EventType   string
	EventDate   string
	GuestCount  string
	AmountPaid  string
	TotalAmount string
	Currency    string
	PaymentID   string
	InEscrow    bool
}

// renderEmail builds the email for an event. Events nobody is emailed about
// return ok=false.
func renderEmail(event *PipelineEvent, supportEmail string) (msg EmailMessage, ok bool, err error) {
	switch event.Type {
	case EventBookingConfirmed:
		if event.RecipientEmail == "" {
			return EmailMessage{}, false, nil
		}
		view := bookingConfirmedView{
			Name:        event.RecipientName,
			BookingID:   event.BookingID,
			EventType:   dataString(event, "eventType"),
			EventDate:   dataString(event, "eventDate"),
			GuestCount:  dataString(event, "guestCount"),
			AmountPaid:  dataString(event, "amountPaid"),
			TotalAmount: dataString(event, "totalAmount"),
			Currency:    dataString(event, "currency"),
			PaymentID:   dataString(event, "paymentId"),
			InEscrow:    event.EscrowID != "",
		}
		var html bytes.Buffer
		if err := bookingConfirmedHTML.Execute(&html, view); err != nil {
			return EmailMessage{}, false, fmt.Errorf("failed to render booking email: %w", err)
		}
		text := fmt.Sprintf("Hi %s,\n\nYour booking %s for %s is confirmed. Paid %s %s of %s %s (payment %s).\n",
			view.Name, view.BookingID, view.EventDate, view.AmountPaid, view.Currency, view.TotalAmount, view.Currency, view.PaymentID)
		return EmailMessage{
			To:       event.RecipientEmail,
			ToName:   event.RecipientName,
			Subject:  fmt.Sprintf("Booking confirmed for %s", view.EventDate),
			TextBody: text,
			HTMLBody: html.String(),
		}, true, nil

	case EventReconciliationRequired:
		if supportEmail == "" {
			return EmailMessage{}, false, nil
		}
		headline := fmt.Sprintf("Escrow account %s could not be funded after a verified payment.", event.EscrowID)
		subject := fmt.Sprintf("[action required] escrow %s needs manual funding", event.EscrowID)
		if dataString(event, "status") == string(escrow.FundingUnbooked) {
			headline = fmt.Sprintf("Escrow account %s is funded but has no booking; it is held back from auto-release.", event.EscrowID)
			subject = fmt.Sprintf("[action required] escrow %s is funded without a booking", event.EscrowID)
		}
		text := fmt.Sprintf("%s\n\n"+
			"Draft: %s\nReceipt: %s\nPayment reference: %s\nAttempts: %s\nLast error: %s\n",
			headline, event.DraftID,
			dataString(event, "receipt"), dataString(event, "paymentReference"),
			dataString(event, "attempts"), dataString(event, "lastError"))
		return EmailMessage{
			To:       supportEmail,
			Subject:  subject,
			TextBody: text,
		}, true, nil
	}
	return EmailMessage{}, false, nil
}

// dataString formats a data field; JSON numbers come back as float64
func dataString(event *PipelineEvent, key string) string {
	switch v := event.Data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}
