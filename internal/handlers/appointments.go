package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medlink-server/internal/booking"
	"medlink-server/internal/middleware"
	"medlink-server/internal/models"
	"medlink-server/internal/utils"
)

// AppointmentHandler handles appointment related requests. The state
// machine and admission-control decisions live in the booking service;
// the handler only binds input and maps errors onto HTTP responses.
type AppointmentHandler struct {
	DB      *gorm.DB
	Booking *booking.Service
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, svc *booking.Service) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Booking: svc}
}

// respondBookingError maps booking service errors onto the response
// envelope. Anything outside the known taxonomy is treated as a
// transient store failure.
func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation), errors.Is(err, booking.ErrInvalidDate):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, booking.ErrSlotConflict),
		errors.Is(err, booking.ErrSlotBusy),
		errors.Is(err, booking.ErrDoctorUnavailable),
		errors.Is(err, booking.ErrInvalidTransition):
		utils.Conflict(c, err.Error())
	case errors.Is(err, booking.ErrForbidden):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, booking.ErrNotFound):
		utils.NotFound(c, err.Error())
	default:
		utils.ServiceUnavailable(c, "Appointment store unavailable: "+err.Error())
	}
}

// CreateAppointmentRequest represents the request body for booking an appointment.
type CreateAppointmentRequest struct {
	DoctorID        string `json:"doctorId" binding:"required,uuid"`
	PatientID       string `json:"patientId" binding:"omitempty,uuid"` // staff may book on a patient's behalf
	AppointmentDate string `json:"appointmentDate" binding:"required"`
	AppointmentTime string `json:"appointmentTime" binding:"required"`
	ReasonForVisit  string `json:"reasonForVisit" binding:"required"`
}

// CreateAppointment handles booking a new appointment.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, warnings, err := h.Booking.Book(c.Request.Context(), actor, booking.BookRequest{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.AppointmentDate,
		Time:      req.AppointmentTime,
		Reason:    req.ReasonForVisit,
	})
	if err != nil {
		respondBookingError(c, err)
		return
	}

	utils.CreatedWithWarnings(c, "Appointment booked successfully", appt, warnings)
}

// GetAppointmentsForUser handles fetching appointments for the logged-in user.
// Patients see their own, doctors see theirs, staff see all. A store
// failure degrades to an empty list so the page still renders.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appointments := []models.Appointment{}
	query := h.DB.WithContext(c.Request.Context()).Order("appointment_date asc, appointment_time asc")

	var err error
	switch {
	case actor.Role == models.RolePatient:
		err = query.Where("patient_id = ?", actor.ID).Find(&appointments).Error
	case actor.Role == models.RoleDoctor:
		err = query.Where("doctor_id = ?", actor.ID).Find(&appointments).Error
	case actor.Role.IsStaff():
		err = query.Find(&appointments).Error
	default:
		utils.Forbidden(c, "User role not permitted to view appointments.")
		return
	}

	if err != nil {
		utils.SuccessWithWarnings(c, "Appointments fetched successfully", []models.Appointment{},
			[]string{"appointment store unavailable, showing an empty list"})
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
// Accessible by the involved patient, the involved doctor, or staff.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var appointment models.Appointment
	if err := h.DB.WithContext(c.Request.Context()).First(&appointment, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.ServiceUnavailable(c, "Appointment store unavailable: "+err.Error())
		}
		return
	}

	involved := actor.ID == appointment.PatientID || actor.ID == appointment.DoctorID
	if !actor.Role.IsStaff() && !involved {
		utils.Forbidden(c, "You are not authorized to view this appointment")
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointmentStatusRequest represents the request body for a status change.
// "Reinstated" is accepted as the label for moving a cancelled
// appointment back to approved.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required,oneof=Pending Approved Declined Cancelled Completed Reinstated"`
}

// UpdateAppointmentStatus handles approve/decline/cancel/complete/reinstate.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, warnings, err := h.Booking.Transition(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	utils.SuccessWithWarnings(c, "Appointment status updated successfully", appt, warnings)
}

// RescheduleAppointmentRequest represents the request body for rescheduling.
type RescheduleAppointmentRequest struct {
	AppointmentDate string `json:"appointmentDate" binding:"required"`
	AppointmentTime string `json:"appointmentTime" binding:"required"`
}

// RescheduleAppointment handles moving an appointment to a new slot. The
// appointment being edited is excluded from its own conflict check.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, warnings, err := h.Booking.Reschedule(c.Request.Context(), actor, c.Param("id"), req.AppointmentDate, req.AppointmentTime)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	utils.SuccessWithWarnings(c, "Appointment rescheduled successfully", appt, warnings)
}

// DeleteAppointment handles removing an appointment (staff only). The
// linked patient record is kept with its appointment link nulled.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	if err := h.Booking.DeleteAppointment(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondBookingError(c, err)
		return
	}

	utils.Success(c, "Appointment deleted successfully", nil)
}

// GetSchedule returns the patient dashboard split: upcoming appointments,
// history, and the reminder window.
func (h *AppointmentHandler) GetSchedule(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	patientID := actor.ID
	if actor.Role.IsStaff() || actor.Role == models.RoleDoctor {
		if requested := c.Query("patientId"); requested != "" {
			patientID = requested
		}
	}

	sched, err := h.Booking.PatientSchedule(c.Request.Context(), patientID)
	if err != nil {
		utils.SuccessWithWarnings(c, "Schedule fetched successfully", booking.Schedule{},
			[]string{"appointment store unavailable, showing an empty schedule"})
		return
	}

	utils.Success(c, "Schedule fetched successfully", sched)
}
