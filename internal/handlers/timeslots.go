package handlers

import (
	"context"

	"medibook-server/internal/policy"
	"medibook-server/internal/services"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
)

type TimeslotService interface {
	Create(ctx context.Context, caller policy.Caller, in services.CreateTimeslotInput) (*services.TimeslotView, error)
	List(ctx context.Context, caller policy.Caller, filter services.TimeslotFilter) ([]*services.TimeslotView, error)
	Get(ctx context.Context, caller policy.Caller, id string) (*services.TimeslotView, error)
	Update(ctx context.Context, caller policy.Caller, id string, in services.UpdateTimeslotInput) (*services.TimeslotView, error)
	Delete(ctx context.Context, caller policy.Caller, id string) error
}

// TimeslotHandler handles doctor availability requests.
type TimeslotHandler struct {
	Service TimeslotService
}

func NewTimeslotHandler(service TimeslotService) *TimeslotHandler {
	return &TimeslotHandler{Service: service}
}

func (h *TimeslotHandler) CreateTimeslot(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req services.CreateTimeslotInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	slot, err := h.Service.Create(c.Request.Context(), caller, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, "Timeslot created successfully", slot)
}

// GetTimeslots lists timeslots in the caller's scope, optionally narrowed by
// ?doctor_id= and ?date=.
func (h *TimeslotHandler) GetTimeslots(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	filter := services.TimeslotFilter{DoctorID: c.Query("doctor_id"), Date: c.Query("date")}
	slots, err := h.Service.List(c.Request.Context(), caller, filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Timeslots retrieved successfully", slots)
}

func (h *TimeslotHandler) GetTimeslotByID(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	slot, err := h.Service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Timeslot retrieved successfully", slot)
}

func (h *TimeslotHandler) UpdateTimeslot(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req services.UpdateTimeslotInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	slot, err := h.Service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Timeslot updated successfully", slot)
}

func (h *TimeslotHandler) DeleteTimeslot(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	if err := h.Service.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Timeslot deleted successfully", nil)
}
