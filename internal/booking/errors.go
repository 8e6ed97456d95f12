package booking

import "errors"

var (
	// ErrNotFound means the referenced appointment, record, or user does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrSlotConflict means another active appointment already occupies
	// the requested (doctor, date, time) slot.
	ErrSlotConflict = errors.New("slot already booked")

	// ErrSlotBusy means the slot is being booked by a concurrent request
	// and the caller should retry.
	ErrSlotBusy = errors.New("slot is currently being booked, please retry")

	// ErrDoctorUnavailable means the doctor is not accepting bookings.
	ErrDoctorUnavailable = errors.New("doctor is not accepting appointments")

	// ErrInvalidDate means the appointment date is malformed or in the past.
	ErrInvalidDate = errors.New("invalid appointment date")

	// ErrInvalidTransition means the requested status change has no edge
	// in the transition table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden means the acting role or identity may not perform the
	// requested operation.
	ErrForbidden = errors.New("operation not permitted")

	// ErrValidation means required input is missing or malformed.
	ErrValidation = errors.New("invalid input")
)
