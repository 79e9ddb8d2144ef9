package models

import (
	"time"

	"gorm.io/datatypes"
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage stores one turn of the assistant conversation. UserID is nil
// for anonymous callers; anonymous turns are not persisted, so in practice
// rows always carry a user id.
type ChatMessage struct {
	ID      uint           `json:"id" gorm:"primaryKey"`
	UserID  *string        `json:"user_id" gorm:"index;size:255"`
	Role    ChatRole       `json:"role" gorm:"not null;size:20"`
	Content string         `json:"content" gorm:"type:text;not null"`
	Meta    datatypes.JSON `json:"meta,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
