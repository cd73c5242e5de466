package services

import (
	"medibook-server/internal/models"
)

// UserSummary is the public face of a user embedded in other resources.
type UserSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

func summarize(u *models.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, ProfileImageURL: u.ProfileImageURL}
}

type DoctorView struct {
	models.Doctor
	User *UserSummary `json:"user,omitempty"`
}

func newDoctorView(d *models.Doctor) *DoctorView {
	return &DoctorView{Doctor: *d, User: summarize(d.User)}
}

type TimeslotView struct {
	models.Timeslot
	Doctor *DoctorView `json:"doctor,omitempty"`
}

func newTimeslotView(s *models.Timeslot) *TimeslotView {
	v := &TimeslotView{Timeslot: *s}
	if s.Doctor != nil {
		v.Doctor = newDoctorView(s.Doctor)
	}
	return v
}

type AppointmentView struct {
	models.Appointment
	Timeslot *TimeslotView `json:"timeslot,omitempty"`
	Customer *UserSummary  `json:"customer,omitempty"`
}

func newAppointmentView(a *models.Appointment) *AppointmentView {
	v := &AppointmentView{Appointment: *a, Customer: summarize(a.Customer)}
	if a.Timeslot != nil {
		v.Timeslot = newTimeslotView(a.Timeslot)
	}
	return v
}

type MessageView struct {
	models.Message
	Sender   *UserSummary `json:"sender,omitempty"`
	Receiver *UserSummary `json:"receiver,omitempty"`
}

func newMessageView(m *models.Message) *MessageView {
	return &MessageView{Message: *m, Sender: summarize(m.Sender), Receiver: summarize(m.Receiver)}
}
