package notify

import (
	"context"
	"log"
)

// Notification carries everything needed to tell a patient about a
// booking or status change.
type Notification struct {
	Recipient   string // patient email
	PatientName string
	DoctorName  string
	Date        string
	Time        string
	Status      string // Booked, Approved, Declined, Cancelled, Reinstated, Updated
}

// Notifier delivers appointment updates to patients. Delivery is always
// best-effort: callers commit state first and downgrade a send failure to
// a warning.
type Notifier interface {
	SendAppointmentUpdate(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the process log. It is the
// fallback when no mail transport is configured.
type LogNotifier struct{}

func (LogNotifier) SendAppointmentUpdate(_ context.Context, n Notification) error {
	log.Printf("notify %s: appointment with %s on %s at %s is %s", n.Recipient, n.DoctorName, n.Date, n.Time, n.Status)
	return nil
}
