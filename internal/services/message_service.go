package services

import (
	"context"
	"fmt"
	"time"

	"medibook-server/internal/apperror"
	"medibook-server/internal/models"
	"medibook-server/internal/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SendMessageInput struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
	Content    string `json:"content" validate:"required,max=2000"`
}

// MessageService handles direct messages between users.
type MessageService struct {
	DB *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{DB: db}
}

func (s *MessageService) Send(ctx context.Context, caller policy.Caller, in SendMessageInput) (*MessageView, error) {
	if !policy.Authorize(caller, policy.ResourceMessage, policy.ActionCreate) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	db := s.DB.WithContext(ctx)
	var receiver models.User
	if err := db.First(&receiver, "id = ?", in.ReceiverID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(msgReceiverNotFound)
		}
		return nil, fmt.Errorf("find receiver: %w", err)
	}

	msg := models.Message{
		SenderID:   caller.UserID,
		ReceiverID: receiver.ID,
		Content:    in.Content,
		SentAt:     time.Now(),
	}
	if err := db.Omit(clause.Associations).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return s.load(db, msg.ID)
}

// List returns every message for an admin, otherwise the caller's sent and
// received messages. Newest first.
func (s *MessageService) List(ctx context.Context, caller policy.Caller) ([]*MessageView, error) {
	if !policy.Authorize(caller, policy.ResourceMessage, policy.ActionList) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	query := withParticipants(s.DB.WithContext(ctx)).Order("sent_at desc")
	if caller.Role != models.RoleAdmin {
		query = query.Where("sender_id = ? OR receiver_id = ?", caller.UserID, caller.UserID)
	}

	var msgs []models.Message
	if err := query.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make([]*MessageView, len(msgs))
	for i := range msgs {
		out[i] = newMessageView(&msgs[i])
	}
	return out, nil
}

func (s *MessageService) Get(ctx context.Context, caller policy.Caller, id string) (*MessageView, error) {
	db := s.DB.WithContext(ctx)
	msg, err := s.find(db, id)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(caller, policy.ResourceMessage, policy.ActionRead, msg.SenderID, msg.ReceiverID) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}
	return s.load(db, msg.ID)
}

// MarkRead flags a message as read. Only the receiver or an admin may do so.
func (s *MessageService) MarkRead(ctx context.Context, caller policy.Caller, id string) (*MessageView, error) {
	db := s.DB.WithContext(ctx)
	msg, err := s.find(db, id)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(caller, policy.ResourceMessage, policy.ActionMarkRead, msg.ReceiverID) {
		return nil, apperror.Forbidden(msgAccessDenied)
	}

	if err := db.Model(msg).Update("is_read", true).Error; err != nil {
		return nil, fmt.Errorf("mark message read: %w", err)
	}
	return s.load(db, msg.ID)
}

func (s *MessageService) Delete(ctx context.Context, caller policy.Caller, id string) error {
	db := s.DB.WithContext(ctx)
	msg, err := s.find(db, id)
	if err != nil {
		return err
	}
	if !policy.Authorize(caller, policy.ResourceMessage, policy.ActionDelete, msg.SenderID, msg.ReceiverID) {
		return apperror.Forbidden(msgAccessDenied)
	}

	if err := db.Delete(&models.Message{}, "id = ?", msg.ID).Error; err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (s *MessageService) find(db *gorm.DB, id string) (*models.Message, error) {
	var msg models.Message
	if err := db.First(&msg, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound(msgMessageNotFound)
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return &msg, nil
}

func (s *MessageService) load(db *gorm.DB, id string) (*MessageView, error) {
	var msg models.Message
	if err := withParticipants(db).First(&msg, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("reload message: %w", err)
	}
	return newMessageView(&msg), nil
}

func withParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Sender").Preload("Receiver")
}
