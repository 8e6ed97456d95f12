package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medlink-server/internal/models"
	"medlink-server/internal/notify"
	"medlink-server/internal/redislock"
)

// Service implements booking admission control and the appointment
// status state machine on top of the store and the slot locker.
type Service struct {
	repo     Repository
	locker   redislock.Locker
	notifier notify.Notifier
}

func NewService(repo Repository, locker redislock.Locker, notifier notify.Notifier) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
	}
}

// BookRequest is a proposed new appointment.
type BookRequest struct {
	PatientID string
	DoctorID  string
	Date      string // "2006-01-02"
	Time      string // "09:00 AM"
	Reason    string
}

func slotKey(doctorID, date, timeOfDay string) string {
	return doctorID + "|" + date + "|" + timeOfDay
}

// today returns the current date with the time-of-day stripped.
func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// CheckSlot decides whether the (doctor, date, time) slot can accept a
// booking. excludeID names an appointment to ignore, so a reschedule does
// not conflict with itself; it is empty for new bookings, in which case
// past dates are rejected. Read-only: persisting is the caller's job.
func (s *Service) CheckSlot(ctx context.Context, doctorID, date, timeOfDay, excludeID string) error {
	parsedDate, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return fmt.Errorf("%w: %q is not a valid date", ErrInvalidDate, date)
	}
	if _, err := time.Parse(models.TimeLayout, timeOfDay); err != nil {
		return fmt.Errorf("%w: %q is not a valid time slot", ErrValidation, timeOfDay)
	}
	if excludeID == "" && parsedDate.Before(today()) {
		return fmt.Errorf("%w: %s is in the past", ErrInvalidDate, date)
	}

	doctor, err := s.repo.GetUserByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: doctor not found", ErrNotFound)
		}
		return err
	}
	if doctor.Role != models.RoleDoctor || !doctor.Bookable {
		return ErrDoctorUnavailable
	}

	count, err := s.repo.CountActiveInSlot(ctx, doctorID, date, timeOfDay, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s on %s at %s", ErrSlotConflict, doctor.FullName(), date, timeOfDay)
	}
	return nil
}

// Book creates a Pending appointment and its linked patient record. The
// admission check and the insert run inside the slot lock so a concurrent
// request for the same slot cannot slip between them. Returns the created
// appointment plus non-fatal warnings.
func (s *Service) Book(ctx context.Context, actor Actor, req BookRequest) (*models.Appointment, []string, error) {
	if req.DoctorID == "" || req.Date == "" || req.Time == "" {
		return nil, nil, fmt.Errorf("%w: doctor, date and time are required", ErrValidation)
	}

	// Patients book for themselves only.
	if actor.Role == models.RolePatient {
		if req.PatientID != "" && req.PatientID != actor.ID {
			return nil, nil, fmt.Errorf("%w: patients can only book for themselves", ErrForbidden)
		}
		req.PatientID = actor.ID
	}
	if req.PatientID == "" {
		return nil, nil, fmt.Errorf("%w: patient is required", ErrValidation)
	}

	patient, err := s.repo.GetUserByID(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: patient not found", ErrNotFound)
		}
		return nil, nil, err
	}

	var created *models.Appointment
	err = s.locker.WithSlotLock(ctx, slotKey(req.DoctorID, req.Date, req.Time), func(lockCtx context.Context) error {
		if err := s.CheckSlot(lockCtx, req.DoctorID, req.Date, req.Time, ""); err != nil {
			return err
		}

		doctor, err := s.repo.GetUserByID(lockCtx, req.DoctorID)
		if err != nil {
			return err
		}

		appt := &models.Appointment{
			PatientID:       req.PatientID,
			DoctorID:        req.DoctorID,
			DoctorName:      doctor.FullName(),
			AppointmentDate: req.Date,
			AppointmentTime: req.Time,
			ReasonForVisit:  strings.TrimSpace(req.Reason),
			Status:          models.StatusPending,
		}
		rec := &models.PatientRecord{
			PatientID:  req.PatientID,
			RecordDate: time.Now(),
		}
		if err := s.repo.CreateAppointmentWithRecord(lockCtx, appt, rec); err != nil {
			return err
		}

		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redislock.ErrLockNotAcquired) {
			return nil, nil, ErrSlotBusy
		}
		return nil, nil, err
	}

	warnings := s.send(ctx, patient, created, "Booked")
	return created, warnings, nil
}

// Reschedule moves an appointment to a new slot. The appointment being
// edited is excluded from its own conflict check.
func (s *Service) Reschedule(ctx context.Context, actor Actor, appointmentID, date, timeOfDay string) (*models.Appointment, []string, error) {
	if date == "" || timeOfDay == "" {
		return nil, nil, fmt.Errorf("%w: date and time are required", ErrValidation)
	}

	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case actor.Role.IsStaff():
	case actor.Role == models.RoleDoctor && actor.ID == appt.DoctorID:
	case actor.Role == models.RolePatient && actor.ID == appt.PatientID:
		if !IsActive(appt.Status) {
			return nil, nil, fmt.Errorf("%w: only pending or approved appointments can be rescheduled", ErrForbidden)
		}
	default:
		return nil, nil, fmt.Errorf("%w: not your appointment", ErrForbidden)
	}

	parsedDate, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q is not a valid date", ErrInvalidDate, date)
	}
	if parsedDate.Before(today()) {
		return nil, nil, fmt.Errorf("%w: %s is in the past", ErrInvalidDate, date)
	}

	err = s.locker.WithSlotLock(ctx, slotKey(appt.DoctorID, date, timeOfDay), func(lockCtx context.Context) error {
		if err := s.CheckSlot(lockCtx, appt.DoctorID, date, timeOfDay, appt.ID); err != nil {
			return err
		}
		appt.AppointmentDate = date
		appt.AppointmentTime = timeOfDay
		return s.repo.SaveAppointment(lockCtx, appt)
	})
	if err != nil {
		if errors.Is(err, redislock.ErrLockNotAcquired) {
			return nil, nil, ErrSlotBusy
		}
		return nil, nil, err
	}

	var warnings []string
	if patient, perr := s.repo.GetUserByID(ctx, appt.PatientID); perr == nil {
		warnings = s.send(ctx, patient, appt, "Updated")
	}
	return appt, warnings, nil
}

// Transition applies a requested status change, enforcing the transition
// table, the acting role, and patient ownership. On success the new
// status is persisted; completion also marks the linked patient record.
// Notification failures never roll anything back and come home as
// warnings.
func (s *Service) Transition(ctx context.Context, actor Actor, appointmentID string, requested models.AppointmentStatus) (*models.Appointment, []string, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, nil, err
	}

	target, err := ValidateTransition(appt.Status, requested, actor.Role)
	if err != nil {
		return nil, nil, err
	}
	if actor.Role == models.RolePatient && actor.ID != appt.PatientID {
		return nil, nil, fmt.Errorf("%w: not your appointment", ErrForbidden)
	}
	if actor.Role == models.RoleDoctor && actor.ID != appt.DoctorID {
		return nil, nil, fmt.Errorf("%w: not your appointment", ErrForbidden)
	}

	from := appt.Status
	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, from, target)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if target == models.StatusCompleted {
		w, err := s.closeOutRecord(ctx, updated)
		warnings = append(warnings, w...)
		if err != nil {
			return updated, warnings, err
		}
	}

	if notifiableTransition(target) {
		if patient, perr := s.repo.GetUserByID(ctx, updated.PatientID); perr == nil {
			warnings = append(warnings, s.send(ctx, patient, updated, notificationLabel(from, target))...)
		} else {
			warnings = append(warnings, "notification skipped: "+perr.Error())
		}
	}

	return updated, warnings, nil
}

// closeOutRecord marks the linked patient record as a successful visit.
// A missing record is a warning, not a failure.
func (s *Service) closeOutRecord(ctx context.Context, appt *models.Appointment) ([]string, error) {
	rec, err := s.repo.GetRecordByAppointmentID(ctx, appt.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []string{"appointment completed, but no linked patient record was found"}, nil
		}
		return nil, err
	}

	rec.SuccessfulVisit = true
	rec.DoctorNotes = fmt.Sprintf("Visit completed on %s at %s with %s.", appt.AppointmentDate, appt.AppointmentTime, appt.DoctorName)
	rec.RecordDate = time.Now()
	if err := s.repo.SaveRecord(ctx, rec); err != nil {
		return nil, err
	}
	return nil, nil
}

// DeleteAppointment removes an appointment (staff only) after unlinking
// its patient record.
func (s *Service) DeleteAppointment(ctx context.Context, actor Actor, appointmentID string) error {
	if !actor.Role.IsStaff() {
		return fmt.Errorf("%w: only staff can delete appointments", ErrForbidden)
	}

	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return err
	}

	rec, err := s.repo.GetRecordByAppointmentID(ctx, appt.ID)
	if err == nil {
		rec.AppointmentID = nil
		if err := s.repo.SaveRecord(ctx, rec); err != nil {
			return err
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	return s.repo.DeleteAppointment(ctx, appt.ID)
}

// PatientSchedule loads a patient's appointments and splits them into
// upcoming, history and reminder views as of now.
func (s *Service) PatientSchedule(ctx context.Context, patientID string) (*Schedule, error) {
	appts, err := s.repo.ListAppointmentsByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	sched := BuildSchedule(appts, today())
	return &sched, nil
}

// send delivers a notification best-effort and converts a failure into a
// caller-visible warning.
func (s *Service) send(ctx context.Context, patient *models.User, appt *models.Appointment, label string) []string {
	err := s.notifier.SendAppointmentUpdate(ctx, notify.Notification{
		Recipient:   patient.Email,
		PatientName: patient.FullName(),
		DoctorName:  appt.DoctorName,
		Date:        appt.AppointmentDate,
		Time:        appt.AppointmentTime,
		Status:      label,
	})
	if err != nil {
		return []string{"notification could not be sent: " + err.Error()}
	}
	return nil
}
