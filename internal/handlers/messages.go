package handlers

import (
	"context"

	"medibook-server/internal/policy"
	"medibook-server/internal/services"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
)

type MessageService interface {
	Send(ctx context.Context, caller policy.Caller, in services.SendMessageInput) (*services.MessageView, error)
	List(ctx context.Context, caller policy.Caller) ([]*services.MessageView, error)
	Get(ctx context.Context, caller policy.Caller, id string) (*services.MessageView, error)
	MarkRead(ctx context.Context, caller policy.Caller, id string) (*services.MessageView, error)
	Delete(ctx context.Context, caller policy.Caller, id string) error
}

// MessageHandler handles messaging between users.
type MessageHandler struct {
	Service MessageService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service MessageService) *MessageHandler {
	return &MessageHandler{Service: service}
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req services.SendMessageInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	msg, err := h.Service.Send(c.Request.Context(), caller, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, "Message sent successfully", msg)
}

// GetMessages lists the caller's conversation history, newest first.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	msgs, err := h.Service.List(c.Request.Context(), caller)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Messages retrieved successfully", msgs)
}

func (h *MessageHandler) GetMessageByID(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	msg, err := h.Service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Message retrieved successfully", msg)
}

// MarkMessageAsRead marks a specific message as read.
func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	msg, err := h.Service.MarkRead(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Message marked as read", msg)
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	if err := h.Service.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Message deleted successfully", nil)
}
