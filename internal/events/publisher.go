// Package events publishes appointment lifecycle events.
package events

import (
	"context"
	"time"
)

const (
	AppointmentBooked      = "appointment.booked"
	AppointmentRescheduled = "appointment.rescheduled"
	AppointmentCanceled    = "appointment.canceled"
	AppointmentDeleted     = "appointment.deleted"
)

// AppointmentEvent describes a committed change to an appointment.
type AppointmentEvent struct {
	Type          string    `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	TimeslotID    string    `json:"timeslot_id"`
	CustomerID    string    `json:"customer_id"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers appointment events to downstream consumers.
type Publisher interface {
	PublishAppointmentEvent(ctx context.Context, evt AppointmentEvent) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishAppointmentEvent(context.Context, AppointmentEvent) error { return nil }
