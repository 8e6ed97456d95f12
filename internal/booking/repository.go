package booking

import (
	"context"

	"medlink-server/internal/models"
)

// Repository contains all store interactions needed by the service.
// Implementations return ErrNotFound for missing rows; any other error is
// treated as a transient store failure.
type Repository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	GetAppointmentByID(ctx context.Context, id string) (*models.Appointment, error)

	// CountActiveInSlot counts appointments with an active status in the
	// (doctor, date, time) slot, excluding excludeID when non-empty.
	CountActiveInSlot(ctx context.Context, doctorID, date, timeOfDay, excludeID string) (int64, error)

	// CreateAppointmentWithRecord persists a new appointment and its
	// linked patient record together.
	CreateAppointmentWithRecord(ctx context.Context, appt *models.Appointment, rec *models.PatientRecord) error

	SaveAppointment(ctx context.Context, appt *models.Appointment) error

	// UpdateAppointmentStatus applies from -> to only if the stored status
	// still equals from, and returns the updated row.
	UpdateAppointmentStatus(ctx context.Context, id string, from, to models.AppointmentStatus) (*models.Appointment, error)

	DeleteAppointment(ctx context.Context, id string) error

	GetRecordByAppointmentID(ctx context.Context, appointmentID string) (*models.PatientRecord, error)
	SaveRecord(ctx context.Context, rec *models.PatientRecord) error

	ListAppointmentsByPatient(ctx context.Context, patientID string) ([]models.Appointment, error)
}
