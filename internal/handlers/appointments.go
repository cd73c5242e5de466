package handlers

import (
	"context"

	"medibook-server/internal/policy"
	"medibook-server/internal/services"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
)

type AppointmentService interface {
	Create(ctx context.Context, caller policy.Caller, in services.CreateAppointmentInput) (*services.AppointmentView, error)
	List(ctx context.Context, caller policy.Caller) ([]*services.AppointmentView, error)
	Get(ctx context.Context, caller policy.Caller, id string) (*services.AppointmentView, error)
	Update(ctx context.Context, caller policy.Caller, id string, in services.UpdateAppointmentInput) (*services.AppointmentView, error)
	Delete(ctx context.Context, caller policy.Caller, id string) error
}

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Service AppointmentService
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(service AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{Service: service}
}

// CreateAppointment books a timeslot for the calling customer.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req services.CreateAppointmentInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Service.Create(c.Request.Context(), caller, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, "Appointment booked successfully", appt)
}

// GetAppointments lists appointments; the service scopes them by role.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	appts, err := h.Service.List(c.Request.Context(), caller)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Appointments retrieved successfully", appts)
}

func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	appt, err := h.Service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Appointment retrieved successfully", appt)
}

// UpdateAppointment reschedules, cancels or edits the notes of an appointment.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req services.UpdateAppointmentInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Appointment updated successfully", appt)
}

func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	if err := h.Service.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Appointment deleted successfully", nil)
}
