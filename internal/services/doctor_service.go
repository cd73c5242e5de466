package services

import (
	"context"
	"errors"
	"fmt"

	"medibook-server/internal/apperror"
	"medibook-server/internal/models"
	"medibook-server/internal/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgRoleNotDoctor        = "User role is not doctor"
	msgDoctorProfileExists  = "Doctor profile already exists for this user"
	msgDoctorDeleteForAdmin = "Forbidden: Only admins can delete doctor profiles."
)

type CreateDoctorInput struct {
	UserID          string  `json:"user_id" validate:"required,uuid"`
	Specialty       string  `json:"specialty" validate:"required,max=100"`
	Degree          string  `json:"degree" validate:"required,max=100"`
	Experience      int     `json:"experience" validate:"gte=0"`
	About           string  `json:"about" validate:"max=2000"`
	Fees            float64 `json:"fees" validate:"gte=0"`
	AddressLine1    string  `json:"address_line1" validate:"required,max=255"`
	AddressLine2    string  `json:"address_line2" validate:"max=255"`
	City            string  `json:"city" validate:"required,max=100"`
	State           string  `json:"state" validate:"required,max=100"`
	PostalCode      string  `json:"postal_code" validate:"required,max=20"`
	ProfileImageURL string  `json:"profile_image_url" validate:"omitempty,url,max=255"`
}

type UpdateDoctorInput struct {
	Specialty       *string  `json:"specialty" validate:"omitempty,max=100"`
	Degree          *string  `json:"degree" validate:"omitempty,max=100"`
	Experience      *int     `json:"experience" validate:"omitempty,gte=0"`
	About           *string  `json:"about" validate:"omitempty,max=2000"`
	Fees            *float64 `json:"fees" validate:"omitempty,gte=0"`
	AddressLine1    *string  `json:"address_line1" validate:"omitempty,max=255"`
	AddressLine2    *string  `json:"address_line2" validate:"omitempty,max=255"`
	City            *string  `json:"city" validate:"omitempty,max=100"`
	State           *string  `json:"state" validate:"omitempty,max=100"`
	PostalCode      *string  `json:"postal_code" validate:"omitempty,max=20"`
	ProfileImageURL *string  `json:"profile_image_url" validate:"omitempty,url,max=255"`
}

// DoctorFilter narrows a doctor listing.
type DoctorFilter struct {
	Specialty string
}

// DoctorService manages doctor profiles.
type DoctorService struct {
	DB *gorm.DB
}

func NewDoctorService(db *gorm.DB) *DoctorService {
	return &DoctorService{DB: db}
}

func (s *DoctorService) Create(ctx context.Context, caller policy.Caller, in CreateDoctorInput) (*DoctorView, error) {
	if !policy.Authorize(caller, policy.ResourceDoctor, policy.ActionCreate) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	db := s.DB.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", in.UserID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.Role != models.RoleDoctor {
		return nil, apperror.BadRequest(msgRoleNotDoctor)
	}

	if _, err := findDoctorForUser(db, user.ID); err == nil {
		return nil, apperror.Conflict(msgDoctorProfileExists)
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("find doctor profile: %w", err)
	}

	doctor := models.Doctor{
		UserID:          user.ID,
		Specialty:       in.Specialty,
		Degree:          in.Degree,
		Experience:      in.Experience,
		About:           in.About,
		Fees:            in.Fees,
		AddressLine1:    in.AddressLine1,
		AddressLine2:    in.AddressLine2,
		City:            in.City,
		State:           in.State,
		PostalCode:      in.PostalCode,
		ProfileImageURL: in.ProfileImageURL,
	}
	if err := db.Omit(clause.Associations).Create(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(msgDoctorProfileExists)
		}
		return nil, fmt.Errorf("create doctor: %w", err)
	}

	doctor.User = &user
	return newDoctorView(&doctor), nil
}

func (s *DoctorService) List(ctx context.Context, caller policy.Caller, filter DoctorFilter) ([]*DoctorView, error) {
	if !policy.Authorize(caller, policy.ResourceDoctor, policy.ActionList) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	query := s.DB.WithContext(ctx).Preload("User").Order("created_at asc")
	if filter.Specialty != "" {
		query = query.Where("specialty = ?", filter.Specialty)
	}

	var doctors []models.Doctor
	if err := query.Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	out := make([]*DoctorView, len(doctors))
	for i := range doctors {
		out[i] = newDoctorView(&doctors[i])
	}
	return out, nil
}

func (s *DoctorService) Get(ctx context.Context, caller policy.Caller, id string) (*DoctorView, error) {
	if !policy.Authorize(caller, policy.ResourceDoctor, policy.ActionRead) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	var doctor models.Doctor
	if err := s.DB.WithContext(ctx).Preload("User").First(&doctor, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(msgDoctorNotFound)
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	return newDoctorView(&doctor), nil
}

func (s *DoctorService) Update(ctx context.Context, caller policy.Caller, id string, in UpdateDoctorInput) (*DoctorView, error) {
	db := s.DB.WithContext(ctx)

	var doctor models.Doctor
	if err := db.First(&doctor, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(msgDoctorNotFound)
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	if !policy.Authorize(caller, policy.ResourceDoctor, policy.ActionUpdate, doctor.UserID) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	applyNonEmpty(&doctor.Specialty, in.Specialty)
	applyNonEmpty(&doctor.Degree, in.Degree)
	applyString(&doctor.About, in.About)
	applyNonEmpty(&doctor.AddressLine1, in.AddressLine1)
	applyString(&doctor.AddressLine2, in.AddressLine2)
	applyNonEmpty(&doctor.City, in.City)
	applyNonEmpty(&doctor.State, in.State)
	applyNonEmpty(&doctor.PostalCode, in.PostalCode)
	applyString(&doctor.ProfileImageURL, in.ProfileImageURL)
	if in.Experience != nil {
		doctor.Experience = *in.Experience
	}
	if in.Fees != nil {
		doctor.Fees = *in.Fees
	}

	if err := db.Omit(clause.Associations).Save(&doctor).Error; err != nil {
		return nil, fmt.Errorf("save doctor: %w", err)
	}

	if err := db.Preload("User").First(&doctor, "id = ?", doctor.ID).Error; err != nil {
		return nil, fmt.Errorf("reload doctor: %w", err)
	}
	return newDoctorView(&doctor), nil
}

// Delete removes a doctor profile together with its timeslots and the
// appointments booked on them.
func (s *DoctorService) Delete(ctx context.Context, caller policy.Caller, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doctor models.Doctor
		if err := tx.First(&doctor, "id = ?", id).Error; err != nil {
			if isNotFound(err) {
				return apperror.NotFound(msgDoctorNotFound)
			}
			return err
		}
		if !policy.Authorize(caller, policy.ResourceDoctor, policy.ActionDelete, doctor.UserID) {
			return apperror.Forbidden(msgDoctorDeleteForAdmin)
		}
		return deleteDoctorCascade(tx, doctor.ID)
	})
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// applyNonEmpty updates a required column, ignoring blank input.
func applyNonEmpty(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}
