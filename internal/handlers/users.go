package handlers

import (
	"context"

	"medibook-server/internal/models"
	"medibook-server/internal/policy"
	"medibook-server/internal/services"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserService interface {
	Create(ctx context.Context, caller policy.Caller, in services.RegisterInput) (*models.UserSanitized, error)
	List(ctx context.Context, caller policy.Caller) ([]models.UserSanitized, error)
	Get(ctx context.Context, caller policy.Caller, id string) (*models.UserSanitized, error)
	Update(ctx context.Context, caller policy.Caller, id string, in services.UpdateUserInput) (*models.UserSanitized, error)
	Delete(ctx context.Context, caller policy.Caller, id string) error
}

// UserHandler handles user profile and directory requests.
type UserHandler struct {
	Service UserService
}

func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{Service: service}
}

// GetMe returns the caller's own profile.
func (h *UserHandler) GetMe(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	h.get(c, caller, caller.UserID)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	h.update(c, caller, caller.UserID)
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	h.delete(c, caller, caller.UserID)
}

// CreateUser lets an admin add a user of any role.
func (h *UserHandler) CreateUser(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req services.RegisterInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Service.Create(c.Request.Context(), caller, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, "User created successfully", user)
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	users, err := h.Service.List(c.Request.Context(), caller)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Users retrieved successfully", users)
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	h.get(c, caller, c.Param("id"))
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	h.update(c, caller, c.Param("id"))
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	h.delete(c, caller, c.Param("id"))
}

func (h *UserHandler) get(c *gin.Context, caller policy.Caller, id string) {
	user, err := h.Service.Get(c.Request.Context(), caller, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "User retrieved successfully", user)
}

func (h *UserHandler) update(c *gin.Context, caller policy.Caller, id string) {
	var req services.UpdateUserInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Service.Update(c.Request.Context(), caller, id, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "User updated successfully", user)
}

func (h *UserHandler) delete(c *gin.Context, caller policy.Caller, id string) {
	if err := h.Service.Delete(c.Request.Context(), caller, id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "User deleted successfully", nil)
}
