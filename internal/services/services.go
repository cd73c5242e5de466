// Package services implements the booking platform's operations. Every
// operation receives the caller explicitly and consults the policy table
// before touching state.
package services

import (
	"errors"
	"strings"
	"time"

	"medibook-server/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgAccessDenied           = "Forbidden: Access is denied."
	msgUserNotFound           = "User not found"
	msgDoctorNotFound         = "Doctor not found"
	msgDoctorProfileNotFound  = "Doctor profile not found"
	msgTimeslotNotFound       = "Timeslot not found"
	msgTimeslotNotAvailable   = "Timeslot is not available"
	msgNewTimeslotUnavailable = "New timeslot is not available"
	msgAppointmentNotFound    = "Appointment not found"
	msgMessageNotFound        = "Message not found"
	msgReceiverNotFound       = "Receiver not found"
)

const clockLayout = "15:04"

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// forUpdate adds SELECT ... FOR UPDATE. Dialects without row locks ignore it.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeClock renders an already validated time as zero-padded HH:MM.
func normalizeClock(s string) string {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return s
	}
	return t.Format(clockLayout)
}

func clockBefore(start, end string) bool {
	s, err1 := time.Parse(clockLayout, start)
	e, err2 := time.Parse(clockLayout, end)
	if err1 != nil || err2 != nil {
		return false
	}
	return s.Before(e)
}

// findDoctorForUser resolves the doctor profile owned by a user.
func findDoctorForUser(db *gorm.DB, userID string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := db.Where("user_id = ?", userID).First(&doctor).Error; err != nil {
		return nil, err
	}
	return &doctor, nil
}

// bookTimeslot flips an available timeslot to booked. It reports false when
// the timeslot was not available at write time.
func bookTimeslot(tx *gorm.DB, timeslotID string) (bool, error) {
	res := tx.Model(&models.Timeslot{}).
		Where("id = ? AND status = ?", timeslotID, models.TimeslotAvailable).
		Update("status", models.TimeslotBooked)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// releaseTimeslot returns a booked timeslot to available. A missing timeslot
// is not an error.
func releaseTimeslot(tx *gorm.DB, timeslotID string) error {
	return tx.Model(&models.Timeslot{}).
		Where("id = ? AND status = ?", timeslotID, models.TimeslotBooked).
		Update("status", models.TimeslotAvailable).Error
}

// deleteDoctorCascade removes a doctor profile with its timeslots and every
// appointment booked on them.
func deleteDoctorCascade(tx *gorm.DB, doctorID string) error {
	slotIDs := tx.Model(&models.Timeslot{}).Select("id").Where("doctor_id = ?", doctorID)
	if err := tx.Where("timeslot_id IN (?)", slotIDs).Delete(&models.Appointment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("doctor_id = ?", doctorID).Delete(&models.Timeslot{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Doctor{}, "id = ?", doctorID).Error
}
