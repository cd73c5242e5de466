package services

import (
	"context"
	"strings"
	"testing"

	"medibook-server/internal/events"
	"medibook-server/internal/models"
	"medibook-server/internal/policy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "password123"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.InitDB(models.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Name:  name,
		Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Role:  role,
	}
	require.NoError(t, u.SetPassword(testPassword))
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedDoctor(t *testing.T, db *gorm.DB, user *models.User, specialty string) *models.Doctor {
	t.Helper()
	d := &models.Doctor{
		UserID:       user.ID,
		Specialty:    specialty,
		Degree:       "MD",
		Experience:   10,
		Fees:         120.50,
		AddressLine1: "1 Clinic Road",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62701",
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

func seedTimeslot(t *testing.T, db *gorm.DB, doctor *models.Doctor, start, end string, status models.TimeslotStatus) *models.Timeslot {
	t.Helper()
	s := &models.Timeslot{
		DoctorID:  doctor.ID,
		Date:      "2030-06-01",
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

func callerFor(u *models.User) policy.Caller {
	return policy.Caller{UserID: u.ID, Role: u.Role}
}

func reloadTimeslot(t *testing.T, db *gorm.DB, id string) models.Timeslot {
	t.Helper()
	var s models.Timeslot
	require.NoError(t, db.First(&s, "id = ?", id).Error)
	return s
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// requireBookingInvariant checks that every booked timeslot has exactly one
// confirmed appointment and every other timeslot has none.
func requireBookingInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var slots []models.Timeslot
	require.NoError(t, db.Find(&slots).Error)
	for _, s := range slots {
		confirmed := countRows(t, db, &models.Appointment{}, "timeslot_id = ? AND status = ?", s.ID, models.AppointmentConfirmed)
		if s.Status == models.TimeslotBooked {
			require.EqualValues(t, 1, confirmed, "booked timeslot %s", s.ID)
		} else {
			require.EqualValues(t, 0, confirmed, "%s timeslot %s", s.Status, s.ID)
		}
	}
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishAppointmentEvent(ctx context.Context, evt events.AppointmentEvent) error {
	return m.Called(ctx, evt).Error(0)
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(evt events.AppointmentEvent) bool { return evt.Type == eventType })
}

// bookingFixture is a doctor with one available timeslot and a customer.
type bookingFixture struct {
	db         *gorm.DB
	admin      *models.User
	doctorUser *models.User
	doctor     *models.Doctor
	customer   *models.User
	slot       *models.Timeslot
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	db := newTestDB(t)
	f := &bookingFixture{db: db}
	f.admin = seedUser(t, db, "Ada Admin", models.RoleAdmin)
	f.doctorUser = seedUser(t, db, "Dana Doctor", models.RoleDoctor)
	f.doctor = seedDoctor(t, db, f.doctorUser, "Cardiology")
	f.customer = seedUser(t, db, "John Doe", models.RoleCustomer)
	f.slot = seedTimeslot(t, db, f.doctor, "09:00", "10:00", models.TimeslotAvailable)
	return f
}
