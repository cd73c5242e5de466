package services

import (
	"context"
	"testing"

	"medibook-server/internal/apperror"
	"medibook-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTimeslot(t *testing.T) {
	f := newBookingFixture(t)
	svc := NewTimeslotService(f.db)
	ctx := context.Background()

	otherDoctorUser := seedUser(t, f.db, "Otto Doctor", models.RoleDoctor)
	seedDoctor(t, f.db, otherDoctorUser, "Dermatology")

	in := CreateTimeslotInput{DoctorID: f.doctor.ID, Date: "2030-06-02", StartTime: "9:00", EndTime: "10:00"}

	slot, err := svc.Create(ctx, callerFor(f.doctorUser), in)
	require.NoError(t, err)
	assert.Equal(t, models.TimeslotAvailable, slot.Status)
	assert.Equal(t, "09:00", slot.StartTime)
	require.NotNil(t, slot.Doctor)
	assert.Equal(t, "Dana Doctor", slot.Doctor.User.Name)

	in.Status = string(models.TimeslotUnavailable)
	slot, err = svc.Create(ctx, callerFor(f.admin), in)
	require.NoError(t, err)
	assert.Equal(t, models.TimeslotUnavailable, slot.Status)

	_, err = svc.Create(ctx, callerFor(otherDoctorUser), in)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	_, err = svc.Create(ctx, callerFor(f.customer), in)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	in.DoctorID = "6f1c1f7e-0000-4000-8000-000000000003"
	_, err = svc.Create(ctx, callerFor(f.admin), in)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
	assert.Equal(t, "Doctor not found", appErr.Message)
}

func TestListTimeslotsIsRoleScoped(t *testing.T) {
	f := newBookingFixture(t)
	svc := NewTimeslotService(f.db)
	ctx := context.Background()

	seedTimeslot(t, f.db, f.doctor, "10:00", "11:00", models.TimeslotUnavailable)
	otherDoctorUser := seedUser(t, f.db, "Otto Doctor", models.RoleDoctor)
	otherDoctor := seedDoctor(t, f.db, otherDoctorUser, "Dermatology")
	seedTimeslot(t, f.db, otherDoctor, "09:00", "10:00", models.TimeslotAvailable)

	own, err := svc.List(ctx, callerFor(f.doctorUser), TimeslotFilter{})
	require.NoError(t, err)
	assert.Len(t, own, 2)
	for _, s := range own {
		assert.Equal(t, f.doctor.ID, s.DoctorID)
	}

	visible, err := svc.List(ctx, callerFor(f.customer), TimeslotFilter{})
	require.NoError(t, err)
	assert.Len(t, visible, 2)
	for _, s := range visible {
		assert.Equal(t, models.TimeslotAvailable, s.Status)
		require.NotNil(t, s.Doctor)
		assert.NotEmpty(t, s.Doctor.User.Email)
	}

	filtered, err := svc.List(ctx, callerFor(f.customer), TimeslotFilter{DoctorID: otherDoctor.ID})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	all, err := svc.List(ctx, callerFor(f.admin), TimeslotFilter{Date: "2030-06-01"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	noProfile := seedUser(t, f.db, "Nora Doctor", models.RoleDoctor)
	_, err = svc.List(ctx, callerFor(noProfile), TimeslotFilter{})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGetTimeslotVisibility(t *testing.T) {
	f := newBookingFixture(t)
	svc := NewTimeslotService(f.db)
	ctx := context.Background()

	closed := seedTimeslot(t, f.db, f.doctor, "10:00", "11:00", models.TimeslotUnavailable)
	otherDoctorUser := seedUser(t, f.db, "Otto Doctor", models.RoleDoctor)

	_, err := svc.Get(ctx, callerFor(f.customer), f.slot.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, callerFor(f.customer), closed.ID)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindForbidden, appErr.Kind)
	assert.Equal(t, "Forbidden: Timeslot is not available.", appErr.Message)

	_, err = svc.Get(ctx, callerFor(f.doctorUser), closed.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, callerFor(otherDoctorUser), f.slot.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	_, err = svc.Get(ctx, callerFor(f.admin), "6f1c1f7e-0000-4000-8000-000000000004")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestUpdateTimeslot(t *testing.T) {
	f := newBookingFixture(t)
	svc := NewTimeslotService(f.db)
	ctx := context.Background()

	end := "11:30"
	unavailable := string(models.TimeslotUnavailable)
	slot, err := svc.Update(ctx, callerFor(f.doctorUser), f.slot.ID, UpdateTimeslotInput{EndTime: &end, Status: &unavailable})
	require.NoError(t, err)
	assert.Equal(t, "11:30", slot.EndTime)
	assert.Equal(t, models.TimeslotUnavailable, slot.Status)

	early := "08:00"
	_, err = svc.Update(ctx, callerFor(f.doctorUser), f.slot.ID, UpdateTimeslotInput{EndTime: &early})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.Update(ctx, callerFor(f.customer), f.slot.ID, UpdateTimeslotInput{EndTime: &end})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}

func TestUpdateBookedTimeslotStatusConflicts(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	_, err := NewAppointmentService(f.db, nil).Create(ctx, callerFor(f.customer), CreateAppointmentInput{TimeslotID: f.slot.ID})
	require.NoError(t, err)

	available := string(models.TimeslotAvailable)
	_, err = NewTimeslotService(f.db).Update(ctx, callerFor(f.admin), f.slot.ID, UpdateTimeslotInput{Status: &available})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, models.TimeslotBooked, reloadTimeslot(t, f.db, f.slot.ID).Status)
	requireBookingInvariant(t, f.db)
}

func TestDeleteTimeslotBlockedByAppointment(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	appts := NewAppointmentService(f.db, nil)
	svc := NewTimeslotService(f.db)

	appt, err := appts.Create(ctx, callerFor(f.customer), CreateAppointmentInput{TimeslotID: f.slot.ID})
	require.NoError(t, err)

	err = svc.Delete(ctx, callerFor(f.doctorUser), f.slot.ID)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, "Cannot delete timeslot with existing appointment", appErr.Message)
	assert.EqualValues(t, 1, countRows(t, f.db, &models.Timeslot{}, "id = ?", f.slot.ID))
	assert.EqualValues(t, 1, countRows(t, f.db, &models.Appointment{}, "id = ?", appt.ID))

	require.NoError(t, appts.Delete(ctx, callerFor(f.customer), appt.ID))
	require.NoError(t, svc.Delete(ctx, callerFor(f.doctorUser), f.slot.ID))
	assert.EqualValues(t, 0, countRows(t, f.db, &models.Timeslot{}, "id = ?", f.slot.ID))
}

func TestDeleteTimeslotAfterCancel(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	appts := NewAppointmentService(f.db, nil)
	svc := NewTimeslotService(f.db)

	appt, err := appts.Create(ctx, callerFor(f.customer), CreateAppointmentInput{TimeslotID: f.slot.ID})
	require.NoError(t, err)
	assert.True(t, apperror.IsKind(svc.Delete(ctx, callerFor(f.doctorUser), f.slot.ID), apperror.KindConflict))

	canceled := string(models.AppointmentCanceled)
	_, err = appts.Update(ctx, callerFor(f.customer), appt.ID, UpdateAppointmentInput{Status: &canceled})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, callerFor(f.doctorUser), f.slot.ID))
	assert.EqualValues(t, 0, countRows(t, f.db, &models.Timeslot{}, "id = ?", f.slot.ID))
	assert.EqualValues(t, 0, countRows(t, f.db, &models.Appointment{}, "timeslot_id = ?", f.slot.ID))
}

func TestDeleteTimeslotAuthorization(t *testing.T) {
	f := newBookingFixture(t)
	svc := NewTimeslotService(f.db)
	ctx := context.Background()

	otherDoctorUser := seedUser(t, f.db, "Otto Doctor", models.RoleDoctor)
	assert.True(t, apperror.IsKind(svc.Delete(ctx, callerFor(otherDoctorUser), f.slot.ID), apperror.KindForbidden))
	assert.True(t, apperror.IsKind(svc.Delete(ctx, callerFor(f.customer), f.slot.ID), apperror.KindForbidden))
	assert.NoError(t, svc.Delete(ctx, callerFor(f.admin), f.slot.ID))
	assert.True(t, apperror.IsKind(svc.Delete(ctx, callerFor(f.admin), f.slot.ID), apperror.KindNotFound))
}
