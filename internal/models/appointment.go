package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCanceled  AppointmentStatus = "canceled"
)

// Appointment binds one customer to one timeslot.
//
// ActiveTimeslotID mirrors TimeslotID while the appointment is confirmed and is
// NULL once canceled. Its unique index guarantees that at most one confirmed
// appointment references a timeslot.
type Appointment struct {
	BaseModel
	TimeslotID       string            `gorm:"size:36;not null;index" json:"timeslot_id"`
	ActiveTimeslotID *string           `gorm:"size:36;uniqueIndex" json:"-"`
	CustomerID       string            `gorm:"size:36;not null;index" json:"customer_id"`
	BookingDate      time.Time         `gorm:"not null" json:"booking_date"`
	Status           AppointmentStatus `gorm:"size:20;not null;default:'confirmed'" json:"status"`
	Notes            string            `gorm:"size:500" json:"notes,omitempty"`

	Timeslot *Timeslot `gorm:"foreignKey:TimeslotID" json:"-"`
	Customer *User     `gorm:"foreignKey:CustomerID" json:"-"`
}
