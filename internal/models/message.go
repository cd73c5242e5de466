package models

import (
	"time"
)

// Message represents a direct message between two users
type Message struct {
	BaseModel
	SenderID   string    `gorm:"size:36;not null;index" json:"sender_id"`
	ReceiverID string    `gorm:"size:36;not null;index" json:"receiver_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
	SentAt     time.Time `gorm:"not null;index" json:"timestamp"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"-"`
}
