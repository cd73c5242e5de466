package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medibook-server/internal/apperror"
	"medibook-server/internal/events"
	"medibook-server/internal/metrics"
	"medibook-server/internal/models"
	"medibook-server/internal/policy"

	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const msgAppointmentCanceled = "Canceled appointments cannot be modified"

type CreateAppointmentInput struct {
	TimeslotID string `json:"timeslot_id" validate:"required,uuid"`
	Notes      string `json:"notes" validate:"max=500"`
}

type UpdateAppointmentInput struct {
	TimeslotID *string `json:"timeslot_id" validate:"omitempty,uuid"`
	Notes      *string `json:"notes" validate:"omitempty,max=500"`
	Status     *string `json:"status" validate:"omitempty,oneof=confirmed canceled"`
}

// AppointmentService owns the booking lifecycle. A timeslot is booked if and
// only if exactly one confirmed appointment references it; every operation
// that changes either side does so inside one transaction.
type AppointmentService struct {
	DB     *gorm.DB
	Events events.Publisher
}

func NewAppointmentService(db *gorm.DB, publisher events.Publisher) *AppointmentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AppointmentService{DB: db, Events: publisher}
}

// Create books an available timeslot for the calling customer.
func (s *AppointmentService) Create(ctx context.Context, caller policy.Caller, in CreateAppointmentInput) (*AppointmentView, error) {
	if !policy.Authorize(caller, policy.ResourceAppointment, policy.ActionCreate) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	var appt models.Appointment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.Timeslot
		if err := forUpdate(tx).First(&slot, "id = ?", in.TimeslotID).Error; err != nil {
			if isNotFound(err) {
				return apperror.NotFound(msgTimeslotNotFound)
			}
			return err
		}
		if slot.Status != models.TimeslotAvailable {
			return apperror.Conflict(msgTimeslotNotAvailable)
		}

		active := slot.ID
		appt = models.Appointment{
			TimeslotID:       slot.ID,
			ActiveTimeslotID: &active,
			CustomerID:       caller.UserID,
			BookingDate:      time.Now(),
			Status:           models.AppointmentConfirmed,
			Notes:            in.Notes,
		}
		if err := tx.Omit(clause.Associations).Create(&appt).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict(msgTimeslotNotAvailable)
			}
			return err
		}

		booked, err := bookTimeslot(tx, slot.ID)
		if err != nil {
			return err
		}
		if !booked {
			return apperror.Conflict(msgTimeslotNotAvailable)
		}
		return nil
	})
	recordOutcome("create", err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.AppointmentBooked, &appt)
	return s.load(ctx, appt.ID)
}

// List returns the appointments visible to the caller: a customer's own
// bookings, those on a doctor's timeslots, or all of them for an admin.
func (s *AppointmentService) List(ctx context.Context, caller policy.Caller) ([]*AppointmentView, error) {
	if !policy.Authorize(caller, policy.ResourceAppointment, policy.ActionList) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	db := s.DB.WithContext(ctx)
	query := withAppointmentDetails(db).Order("created_at desc")

	switch caller.Role {
	case models.RoleCustomer:
		query = query.Where("customer_id = ?", caller.UserID)
	case models.RoleDoctor:
		doctor, err := findDoctorForUser(db, caller.UserID)
		if err != nil {
			if isNotFound(err) {
				return nil, apperror.NotFound(msgDoctorProfileNotFound)
			}
			return nil, fmt.Errorf("find doctor profile: %w", err)
		}
		slotIDs := db.Model(&models.Timeslot{}).Select("id").Where("doctor_id = ?", doctor.ID)
		query = query.Where("timeslot_id IN (?)", slotIDs)
	}

	var appts []models.Appointment
	if err := query.Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	out := make([]*AppointmentView, len(appts))
	for i := range appts {
		out[i] = newAppointmentView(&appts[i])
	}
	return out, nil
}

func (s *AppointmentService) Get(ctx context.Context, caller policy.Caller, id string) (*AppointmentView, error) {
	var appt models.Appointment
	if err := withAppointmentDetails(s.DB.WithContext(ctx)).First(&appt, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(msgAppointmentNotFound)
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}

	owners := []string{appt.CustomerID}
	if appt.Timeslot != nil {
		owners = append(owners, doctorUserID(appt.Timeslot.Doctor))
	}
	if !policy.Authorize(caller, policy.ResourceAppointment, policy.ActionRead, owners...) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}
	return newAppointmentView(&appt), nil
}

// Update changes notes, moves the booking to another timeslot, or cancels it.
// Rescheduling releases the old timeslot and books the new one atomically.
// Cancellation releases the timeslot and is terminal.
func (s *AppointmentService) Update(ctx context.Context, caller policy.Caller, id string, in UpdateAppointmentInput) (*AppointmentView, error) {
	var (
		appt      models.Appointment
		eventType string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockOwned(tx, caller, policy.ActionUpdate, id, &appt); err != nil {
			return err
		}

		moving := in.TimeslotID != nil && *in.TimeslotID != appt.TimeslotID
		canceling := in.Status != nil && models.AppointmentStatus(*in.Status) == models.AppointmentCanceled
		if appt.Status == models.AppointmentCanceled && (moving || (in.Status != nil && !canceling)) {
			return apperror.Conflict(msgAppointmentCanceled)
		}

		if moving {
			var next models.Timeslot
			err := forUpdate(tx).First(&next, "id = ?", *in.TimeslotID).Error
			if isNotFound(err) {
				return apperror.Conflict(msgNewTimeslotUnavailable)
			}
			if err != nil {
				return err
			}
			if next.Status != models.TimeslotAvailable {
				return apperror.Conflict(msgNewTimeslotUnavailable)
			}

			if err := releaseTimeslot(tx, appt.TimeslotID); err != nil {
				return err
			}
			booked, err := bookTimeslot(tx, next.ID)
			if err != nil {
				return err
			}
			if !booked {
				return apperror.Conflict(msgNewTimeslotUnavailable)
			}

			active := next.ID
			appt.TimeslotID = next.ID
			appt.ActiveTimeslotID = &active
			eventType = events.AppointmentRescheduled
		}

		if in.Notes != nil {
			appt.Notes = *in.Notes
		}

		if canceling && appt.Status == models.AppointmentConfirmed {
			if err := releaseTimeslot(tx, appt.TimeslotID); err != nil {
				return err
			}
			appt.Status = models.AppointmentCanceled
			appt.ActiveTimeslotID = nil
			eventType = events.AppointmentCanceled
		}

		if err := tx.Omit(clause.Associations).Save(&appt).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict(msgNewTimeslotUnavailable)
			}
			return err
		}
		return nil
	})
	recordOutcome("update", err)
	if err != nil {
		return nil, err
	}

	if eventType != "" {
		s.publish(ctx, eventType, &appt)
	}
	return s.load(ctx, appt.ID)
}

// Delete removes an appointment. A confirmed appointment returns its
// timeslot to available; a missing timeslot is ignored.
func (s *AppointmentService) Delete(ctx context.Context, caller policy.Caller, id string) error {
	var appt models.Appointment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockOwned(tx, caller, policy.ActionDelete, id, &appt); err != nil {
			return err
		}
		if appt.Status == models.AppointmentConfirmed {
			if err := releaseTimeslot(tx, appt.TimeslotID); err != nil {
				return err
			}
		}
		return tx.Delete(&models.Appointment{}, "id = ?", appt.ID).Error
	})
	recordOutcome("delete", err)
	if err != nil {
		return err
	}

	s.publish(ctx, events.AppointmentDeleted, &appt)
	return nil
}

// lockOwned loads an appointment FOR UPDATE and checks the caller against
// the booking customer.
func (s *AppointmentService) lockOwned(tx *gorm.DB, caller policy.Caller, action policy.Action, id string, appt *models.Appointment) error {
	if err := forUpdate(tx).First(appt, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return apperror.NotFound(msgAppointmentNotFound)
		}
		return err
	}
	if !policy.Authorize(caller, policy.ResourceAppointment, action, appt.CustomerID) {
		return apperror.Forbidden(msgAccessDenied)
	}
	return nil
}

func (s *AppointmentService) load(ctx context.Context, id string) (*AppointmentView, error) {
	var appt models.Appointment
	if err := withAppointmentDetails(s.DB.WithContext(ctx)).First(&appt, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("reload appointment: %w", err)
	}
	return newAppointmentView(&appt), nil
}

func (s *AppointmentService) publish(ctx context.Context, eventType string, appt *models.Appointment) {
	evt := events.AppointmentEvent{
		Type:          eventType,
		AppointmentID: appt.ID,
		TimeslotID:    appt.TimeslotID,
		CustomerID:    appt.CustomerID,
		Status:        string(appt.Status),
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.Events.PublishAppointmentEvent(ctx, evt); err != nil {
		log.Warnf("failed to publish %s for appointment %s: %v", eventType, appt.ID, err)
	}
}

func withAppointmentDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Timeslot.Doctor.User").Preload("Customer")
}

func recordOutcome(operation string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case apperror.IsKind(err, apperror.KindConflict):
		outcome = "conflict"
	case apperror.IsKind(err, apperror.KindNotFound), apperror.IsKind(err, apperror.KindForbidden):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	metrics.BookingOutcomes.WithLabelValues(operation, outcome).Inc()
}
