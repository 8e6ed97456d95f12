package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medlink-server/internal/middleware"
	"medlink-server/internal/models"
	"medlink-server/internal/utils"
)

// RecordHandler handles patient visit record requests.
type RecordHandler struct {
	DB *gorm.DB
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(db *gorm.DB) *RecordHandler {
	return &RecordHandler{DB: db}
}

// GetRecords lists patient records. Staff and doctors see all records,
// patients see their own. A store failure degrades to an empty list.
func (h *RecordHandler) GetRecords(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	records := []models.PatientRecord{}
	query := h.DB.WithContext(c.Request.Context()).Order("record_date desc")

	var err error
	if actor.Role == models.RolePatient {
		err = query.Where("patient_id = ?", actor.ID).Find(&records).Error
	} else {
		err = query.Find(&records).Error
	}

	if err != nil {
		utils.SuccessWithWarnings(c, "Patient records fetched successfully", []models.PatientRecord{},
			[]string{"record store unavailable, showing an empty list"})
		return
	}

	utils.Success(c, "Patient records fetched successfully", records)
}

// GetRecordByID fetches one record. Accessible by its patient, doctors,
// and staff.
func (h *RecordHandler) GetRecordByID(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var record models.PatientRecord
	if err := h.DB.WithContext(c.Request.Context()).First(&record, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient record not found")
		} else {
			utils.ServiceUnavailable(c, "Record store unavailable: "+err.Error())
		}
		return
	}

	if actor.Role == models.RolePatient && actor.ID != record.PatientID {
		utils.Forbidden(c, "You are not authorized to view this record")
		return
	}

	utils.Success(c, "Patient record fetched successfully", record)
}

// UpdateRecordNotesRequest represents the request body for a notes update.
type UpdateRecordNotesRequest struct {
	DoctorNotes string `json:"doctorNotes" binding:"required"`
}

// UpdateRecordNotes lets a doctor or staff member amend the notes on a
// visit record.
func (h *RecordHandler) UpdateRecordNotes(c *gin.Context) {
	var req UpdateRecordNotesRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var record models.PatientRecord
	if err := h.DB.WithContext(c.Request.Context()).First(&record, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient record not found")
		} else {
			utils.ServiceUnavailable(c, "Record store unavailable: "+err.Error())
		}
		return
	}

	record.DoctorNotes = req.DoctorNotes
	if err := h.DB.WithContext(c.Request.Context()).Save(&record).Error; err != nil {
		utils.InternalServerError(c, "Failed to update record: "+err.Error())
		return
	}

	utils.Success(c, "Patient record updated successfully", record)
}
