package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends appointment notifications over SMTP.
type Mailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func NewMailer(host, port, username, password, from string) *Mailer {
	return &Mailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
	}
}

func (m *Mailer) SendAppointmentUpdate(_ context.Context, n Notification) error {
	subject := fmt.Sprintf("Your MedLink Appointment %s", n.Status)
	msg := composeMessage(n)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", n.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("\r\n")
	b.WriteString(msg)

	addr := m.Host + ":" + m.Port
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	if err := smtp.SendMail(addr, auth, m.From, []string{n.Recipient}, []byte(b.String())); err != nil {
		return fmt.Errorf("send appointment mail: %w", err)
	}
	return nil
}

func composeMessage(n Notification) string {
	var action string
	switch n.Status {
	case "Booked":
		action = "successfully booked"
	case "Approved":
		action = "has been approved"
	case "Declined":
		action = "has been declined"
	case "Cancelled":
		action = "has been cancelled"
	case "Reinstated":
		action = "has been reinstated"
	default:
		action = "updated"
	}

	return fmt.Sprintf(`Hi %s,

Your appointment %s!

Date: %s
Time: %s
Doctor: %s

Thank you for choosing MedLink!
`, n.PatientName, action, n.Date, n.Time, n.DoctorName)
}
