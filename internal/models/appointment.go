package models

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "Pending"
	StatusApproved  AppointmentStatus = "Approved"
	StatusDeclined  AppointmentStatus = "Declined"
	StatusCancelled AppointmentStatus = "Cancelled"
	StatusCompleted AppointmentStatus = "Completed"

	// StatusReinstated is accepted as a requested transition label only.
	// A reinstated appointment is stored as Approved.
	StatusReinstated AppointmentStatus = "Reinstated"
)

// DateLayout is the wire and storage format for appointment dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire and storage format for appointment time slots,
// e.g. "09:00 AM".
const TimeLayout = "03:04 PM"

// Appointment represents a scheduled clinic visit
type Appointment struct {
	BaseModel
	PatientID  string `gorm:"size:36;index" json:"patientId"`
	DoctorID   string `gorm:"size:36;index;index:idx_slot" json:"doctorId"`
	DoctorName string `gorm:"size:200" json:"doctorName"`

	// Date and time are stored as text, as in the legacy schema. Parsing
	// happens at the booking boundary and in the schedule aggregator.
	AppointmentDate string `gorm:"size:10;index:idx_slot" json:"appointmentDate"`
	AppointmentTime string `gorm:"size:10;index:idx_slot" json:"appointmentTime"`

	ReasonForVisit string            `gorm:"size:255" json:"reasonForVisit"`
	Status         AppointmentStatus `gorm:"size:20;default:'Pending'" json:"status"`

	// Relations
	Patient User `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"-"`
}
