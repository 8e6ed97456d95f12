package models

import (
	"time"
)

// PatientRecord represents one visit entry in a patient's history.
// A record is created alongside its appointment and survives the
// appointment's deletion: the link is nulled, never cascaded.
type PatientRecord struct {
	BaseModel
	PatientID     string  `gorm:"size:36;index" json:"patientId"`
	AppointmentID *string `gorm:"size:36;index" json:"appointmentId,omitempty"`

	SuccessfulVisit bool      `gorm:"column:successful_appointment_visit;default:false" json:"successfulAppointmentVisit"`
	DoctorNotes     string    `gorm:"type:text" json:"doctorNotes"`
	RecordDate      time.Time `json:"recordDate"`

	// Relations
	Patient     User         `gorm:"foreignKey:PatientID" json:"-"`
	Appointment *Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
}
