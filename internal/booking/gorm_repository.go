package booking

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"medlink-server/internal/models"
)

// GormRepository is the MySQL-backed Repository.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

func (r *GormRepository) GetAppointmentByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := r.db.WithContext(ctx).First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return &appt, nil
}

func (r *GormRepository) CountActiveInSlot(ctx context.Context, doctorID, date, timeOfDay, excludeID string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ?", doctorID, date, timeOfDay).
		Where("status IN ?", ActiveStatuses)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count slot appointments: %w", err)
	}
	return count, nil
}

func (r *GormRepository) CreateAppointmentWithRecord(ctx context.Context, appt *models.Appointment, rec *models.PatientRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(appt).Error; err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		rec.AppointmentID = &appt.ID
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("create patient record: %w", err)
		}
		return nil
	})
}

func (r *GormRepository) SaveAppointment(ctx context.Context, appt *models.Appointment) error {
	if err := r.db.WithContext(ctx).Save(appt).Error; err != nil {
		return fmt.Errorf("save appointment: %w", err)
	}
	return nil
}

func (r *GormRepository) UpdateAppointmentStatus(ctx context.Context, id string, from, to models.AppointmentStatus) (*models.Appointment, error) {
	res := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return nil, fmt.Errorf("update appointment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the row vanished or its status moved underneath us.
		if _, err := r.GetAppointmentByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}
	return r.GetAppointmentByID(ctx, id)
}

func (r *GormRepository) DeleteAppointment(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Appointment{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

func (r *GormRepository) GetRecordByAppointmentID(ctx context.Context, appointmentID string) (*models.PatientRecord, error) {
	var rec models.PatientRecord
	if err := r.db.WithContext(ctx).First(&rec, "appointment_id = ?", appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load patient record: %w", err)
	}
	return &rec, nil
}

func (r *GormRepository) SaveRecord(ctx context.Context, rec *models.PatientRecord) error {
	if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("save patient record: %w", err)
	}
	return nil
}

func (r *GormRepository) ListAppointmentsByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("appointment_date asc, appointment_time asc").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	return appts, nil
}
