package handlers

import (
	"context"

	"medibook-server/internal/policy"
	"medibook-server/internal/services"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
)

type DoctorService interface {
	Create(ctx context.Context, caller policy.Caller, in services.CreateDoctorInput) (*services.DoctorView, error)
	List(ctx context.Context, caller policy.Caller, filter services.DoctorFilter) ([]*services.DoctorView, error)
	Get(ctx context.Context, caller policy.Caller, id string) (*services.DoctorView, error)
	Update(ctx context.Context, caller policy.Caller, id string, in services.UpdateDoctorInput) (*services.DoctorView, error)
	Delete(ctx context.Context, caller policy.Caller, id string) error
}

// DoctorHandler handles doctor profile requests.
type DoctorHandler struct {
	Service DoctorService
}

func NewDoctorHandler(service DoctorService) *DoctorHandler {
	return &DoctorHandler{Service: service}
}

func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req services.CreateDoctorInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctor, err := h.Service.Create(c.Request.Context(), caller, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, "Doctor profile created successfully", doctor)
}

// GetDoctors lists doctor profiles, optionally filtered by ?specialty=.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	doctors, err := h.Service.List(c.Request.Context(), caller, services.DoctorFilter{Specialty: c.Query("specialty")})
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Doctors retrieved successfully", doctors)
}

func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	doctor, err := h.Service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Doctor retrieved successfully", doctor)
}

func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req services.UpdateDoctorInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctor, err := h.Service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Doctor profile updated successfully", doctor)
}

func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	if err := h.Service.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Doctor profile deleted successfully", nil)
}
