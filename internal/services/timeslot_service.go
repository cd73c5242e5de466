package services

import (
	"context"
	"fmt"

	"medibook-server/internal/apperror"
	"medibook-server/internal/models"
	"medibook-server/internal/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgTimeslotForbiddenUnavailable = "Forbidden: Timeslot is not available."
	msgTimeslotHasAppointment       = "Cannot delete timeslot with existing appointment"
	msgTimeslotActiveBooking        = "Timeslot has an active appointment"
)

type CreateTimeslotInput struct {
	DoctorID  string `json:"doctor_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04,timeafter=StartTime"`
	Status    string `json:"status" validate:"omitempty,oneof=available unavailable"`
}

type UpdateTimeslotInput struct {
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime *string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime   *string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Status    *string `json:"status" validate:"omitempty,oneof=available unavailable"`
}

// TimeslotFilter narrows a listing within the caller's visible scope.
type TimeslotFilter struct {
	DoctorID string
	Date     string
}

// TimeslotService manages doctors' bookable timeslots.
type TimeslotService struct {
	DB *gorm.DB
}

func NewTimeslotService(db *gorm.DB) *TimeslotService {
	return &TimeslotService{DB: db}
}

func (s *TimeslotService) Create(ctx context.Context, caller policy.Caller, in CreateTimeslotInput) (*TimeslotView, error) {
	db := s.DB.WithContext(ctx)

	var doctor models.Doctor
	if err := db.Preload("User").First(&doctor, "id = ?", in.DoctorID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(msgDoctorNotFound)
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	if !policy.Authorize(caller, policy.ResourceTimeslot, policy.ActionCreate, doctor.UserID) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	status := models.TimeslotAvailable
	if in.Status != "" {
		status = models.TimeslotStatus(in.Status)
	}
	slot := models.Timeslot{
		DoctorID:  doctor.ID,
		Date:      in.Date,
		StartTime: normalizeClock(in.StartTime),
		EndTime:   normalizeClock(in.EndTime),
		Status:    status,
	}
	if err := db.Omit(clause.Associations).Create(&slot).Error; err != nil {
		return nil, fmt.Errorf("create timeslot: %w", err)
	}

	slot.Doctor = &doctor
	return newTimeslotView(&slot), nil
}

// List returns the timeslots visible to the caller: a doctor sees their own,
// a customer sees available ones, an admin sees all.
func (s *TimeslotService) List(ctx context.Context, caller policy.Caller, filter TimeslotFilter) ([]*TimeslotView, error) {
	if !policy.Authorize(caller, policy.ResourceTimeslot, policy.ActionList) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	db := s.DB.WithContext(ctx)
	query := db.Preload("Doctor.User").Order("date asc, start_time asc")

	switch caller.Role {
	case models.RoleDoctor:
		doctor, err := findDoctorForUser(db, caller.UserID)
		if err != nil {
			if isNotFound(err) {
				return nil, apperror.NotFound(msgDoctorProfileNotFound)
			}
			return nil, fmt.Errorf("find doctor profile: %w", err)
		}
		query = query.Where("doctor_id = ?", doctor.ID)
	case models.RoleCustomer:
		query = query.Where("status = ?", models.TimeslotAvailable)
	}

	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}

	var slots []models.Timeslot
	if err := query.Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("list timeslots: %w", err)
	}

	out := make([]*TimeslotView, len(slots))
	for i := range slots {
		out[i] = newTimeslotView(&slots[i])
	}
	return out, nil
}

func (s *TimeslotService) Get(ctx context.Context, caller policy.Caller, id string) (*TimeslotView, error) {
	var slot models.Timeslot
	if err := s.DB.WithContext(ctx).Preload("Doctor.User").First(&slot, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(msgTimeslotNotFound)
		}
		return nil, fmt.Errorf("find timeslot: %w", err)
	}

	if !policy.Authorize(caller, policy.ResourceTimeslot, policy.ActionRead, doctorUserID(slot.Doctor)) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}
	if caller.Role == models.RoleCustomer && slot.Status != models.TimeslotAvailable {
		return nil, apperror.Forbidden(msgTimeslotForbiddenUnavailable)
	}
	return newTimeslotView(&slot), nil
}

func (s *TimeslotService) Update(ctx context.Context, caller policy.Caller, id string, in UpdateTimeslotInput) (*TimeslotView, error) {
	var slot models.Timeslot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockOwned(tx, caller, policy.ActionUpdate, id, &slot); err != nil {
			return err
		}

		if in.Date != nil {
			slot.Date = *in.Date
		}
		if in.StartTime != nil {
			slot.StartTime = normalizeClock(*in.StartTime)
		}
		if in.EndTime != nil {
			slot.EndTime = normalizeClock(*in.EndTime)
		}
		if !clockBefore(slot.StartTime, slot.EndTime) {
			return apperror.Validation(apperror.FieldError{Field: "end_time", Message: "must be after the start time"})
		}

		if in.Status != nil {
			if slot.Status == models.TimeslotBooked {
				return apperror.Conflict(msgTimeslotActiveBooking)
			}
			slot.Status = models.TimeslotStatus(*in.Status)
		}

		return tx.Omit(clause.Associations).Save(&slot).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Preload("Doctor.User").First(&slot, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("reload timeslot: %w", err)
	}
	return newTimeslotView(&slot), nil
}

// Delete removes a timeslot that no confirmed appointment holds. Canceled
// appointments on it go with it. The row lock serializes the check against
// concurrent bookings.
func (s *TimeslotService) Delete(ctx context.Context, caller policy.Caller, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.Timeslot
		if err := s.lockOwned(tx, caller, policy.ActionDelete, id, &slot); err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&models.Appointment{}).Where("active_timeslot_id = ?", slot.ID).Count(&active).Error; err != nil {
			return err
		}
		if active > 0 || slot.Status == models.TimeslotBooked {
			return apperror.Conflict(msgTimeslotHasAppointment)
		}

		if err := tx.Where("timeslot_id = ?", slot.ID).Delete(&models.Appointment{}).Error; err != nil {
			return fmt.Errorf("delete canceled appointments: %w", err)
		}
		return tx.Delete(&models.Timeslot{}, "id = ?", slot.ID).Error
	})
}

// lockOwned loads a timeslot FOR UPDATE and checks the caller against the
// doctor that owns it.
func (s *TimeslotService) lockOwned(tx *gorm.DB, caller policy.Caller, action policy.Action, id string, slot *models.Timeslot) error {
	if err := forUpdate(tx).First(slot, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return apperror.NotFound(msgTimeslotNotFound)
		}
		return err
	}

	var doctor models.Doctor
	owner := ""
	if err := tx.First(&doctor, "id = ?", slot.DoctorID).Error; err == nil {
		owner = doctor.UserID
	} else if !isNotFound(err) {
		return err
	}

	if !policy.Authorize(caller, policy.ResourceTimeslot, action, owner) {
		return apperror.Forbidden(msgAccessDenied)
	}
	return nil
}

func doctorUserID(d *models.Doctor) string {
	if d == nil {
		return ""
	}
	return d.UserID
}
