package store

import (
	"time"

	"github.com/dkeye/voxroom/internal/domain"
)

type UserModel struct {
	ID        string    `gorm:"type:varchar(64);primaryKey"`
	Username  string    `gorm:"type:varchar(64);not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

type MessageModel struct {
	ID              string    `gorm:"type:varchar(36);primaryKey"`
	RoomID          string    `gorm:"type:varchar(64);index:idx_messages_room_created,priority:1;not null"`
	SenderID        string    `gorm:"type:varchar(64);index;not null"`
	Type            string    `gorm:"type:varchar(16);not null;default:'text'"`
	Content         string    `gorm:"type:text"`
	VoiceDurationMs int64     `gorm:"default:0"`
	VoiceURL        string    `gorm:"type:varchar(512)"`
	VoiceData       []byte
	ClientMessageID string    `gorm:"type:varchar(64)"`
	CreatedAt       time.Time `gorm:"index:idx_messages_room_created,priority:2;not null"`
}

func (MessageModel) TableName() string { return "messages" }

func (m *MessageModel) ToDomain(senderName string) *domain.Message {
	msg := &domain.Message{
		ID:              m.ID,
		RoomID:          domain.RoomID(m.RoomID),
		SenderID:        domain.UserID(m.SenderID),
		SenderName:      senderName,
		Type:            domain.MessageType(m.Type),
		Content:         m.Content,
		ClientMessageID: m.ClientMessageID,
		CreatedAt:       m.CreatedAt,
	}
	if msg.Type == domain.MessageVoice {
		msg.Voice = &domain.VoicePayload{
			DurationMs: m.VoiceDurationMs,
			URL:        m.VoiceURL,
			Data:       m.VoiceData,
		}
	}
	if msg.SenderName == "" {
		msg.SenderName = m.SenderID
	}
	return msg
}
