package services

import (
	"context"
	"errors"
	"fmt"

	"medibook-server/internal/apperror"
	"medibook-server/internal/models"
	"medibook-server/internal/policy"

	"gorm.io/gorm"
)

const (
	msgEmailInUse     = "Email is already in use by another user"
	msgRoleChangeDeny = "Forbidden: Only admins can change roles."
	msgRoleHasProfile = "Doctor profile exists for this user; delete it before changing the role"
)

type UpdateUserInput struct {
	Name            *string `json:"name" validate:"omitempty,max=100"`
	Email           *string `json:"email" validate:"omitempty,email,max=255"`
	Password        *string `json:"password" validate:"omitempty,min=6"`
	Role            *string `json:"role" validate:"omitempty,oneof=customer doctor admin"`
	ProfileImageURL *string `json:"profile_image_url" validate:"omitempty,url,max=255"`
}

// UserService manages the user directory.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Create adds a user on behalf of an admin.
func (s *UserService) Create(ctx context.Context, caller policy.Caller, in RegisterInput) (*models.UserSanitized, error) {
	if !policy.Authorize(caller, policy.ResourceUser, policy.ActionCreate) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}
	user, err := createUser(s.DB.WithContext(ctx), in)
	if err != nil {
		return nil, err
	}
	sanitized := user.Sanitize()
	return &sanitized, nil
}

func (s *UserService) List(ctx context.Context, caller policy.Caller) ([]models.UserSanitized, error) {
	if !policy.Authorize(caller, policy.ResourceUser, policy.ActionList) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	var users []models.User
	if err := s.DB.WithContext(ctx).Order("created_at asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]models.UserSanitized, len(users))
	for i := range users {
		out[i] = users[i].Sanitize()
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, caller policy.Caller, id string) (*models.UserSanitized, error) {
	if !policy.Authorize(caller, policy.ResourceUser, policy.ActionRead, id) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	sanitized := user.Sanitize()
	return &sanitized, nil
}

func (s *UserService) Update(ctx context.Context, caller policy.Caller, id string, in UpdateUserInput) (*models.UserSanitized, error) {
	if !policy.Authorize(caller, policy.ResourceUser, policy.ActionUpdate, id) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}
	if in.Role != nil && caller.Role != models.RoleAdmin {
		return nil, apperror.Forbidden(msgRoleChangeDeny)
	}

	db := s.DB.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if in.Name != nil && *in.Name != "" {
		user.Name = *in.Name
	}
	if in.Email != nil && *in.Email != "" {
		email := normalizeEmail(*in.Email)
		if email != user.Email {
			var count int64
			if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("check email: %w", err)
			}
			if count > 0 {
				return nil, apperror.Conflict(msgEmailInUse)
			}
			user.Email = email
		}
	}
	if in.Password != nil && *in.Password != "" {
		if err := user.SetPassword(*in.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	if in.Role != nil {
		role := models.Role(*in.Role)
		if user.Role == models.RoleDoctor && role != models.RoleDoctor {
			if _, err := findDoctorForUser(db, user.ID); err == nil {
				return nil, apperror.Conflict(msgRoleHasProfile)
			} else if !isNotFound(err) {
				return nil, fmt.Errorf("find doctor profile: %w", err)
			}
		}
		user.Role = role
	}
	if in.ProfileImageURL != nil {
		user.ProfileImageURL = *in.ProfileImageURL
	}

	if err := db.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(msgEmailInUse)
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	sanitized := user.Sanitize()
	return &sanitized, nil
}

// Delete removes a user and everything that references it: the doctor
// profile with its timeslots and their appointments, the user's own bookings
// (releasing their timeslots), messages, and refresh tokens.
func (s *UserService) Delete(ctx context.Context, caller policy.Caller, id string) error {
	if !policy.Authorize(caller, policy.ResourceUser, policy.ActionDelete, id) {
		return apperror.Forbidden(msgAccessDenied)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if isNotFound(err) {
				return apperror.NotFound(msgUserNotFound)
			}
			return err
		}

		doctor, err := findDoctorForUser(tx, id)
		switch {
		case err == nil:
			if err := deleteDoctorCascade(tx, doctor.ID); err != nil {
				return fmt.Errorf("delete doctor profile: %w", err)
			}
		case !isNotFound(err):
			return err
		}

		booked := tx.Model(&models.Appointment{}).Select("timeslot_id").
			Where("customer_id = ? AND status = ?", id, models.AppointmentConfirmed)
		if err := tx.Model(&models.Timeslot{}).
			Where("id IN (?) AND status = ?", booked, models.TimeslotBooked).
			Update("status", models.TimeslotAvailable).Error; err != nil {
			return fmt.Errorf("release booked timeslots: %w", err)
		}
		if err := tx.Where("customer_id = ?", id).Delete(&models.Appointment{}).Error; err != nil {
			return fmt.Errorf("delete appointments: %w", err)
		}
		if err := tx.Where("sender_id = ? OR receiver_id = ?", id, id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return fmt.Errorf("delete refresh tokens: %w", err)
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
}
