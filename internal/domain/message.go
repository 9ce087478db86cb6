package domain

import "time"

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageVoice  MessageType = "voice"
	MessageSystem MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageVoice, MessageSystem:
		return true
	}
	return false
}

// VoicePayload describes recorded audio. Exactly one of URL or Data is set:
// URL when the audio went to blob storage, Data when it is kept inline.
type VoicePayload struct {
	DurationMs int64  `json:"durationMs"`
	URL        string `json:"url,omitempty"`
	Data       []byte `json:"data,omitempty"`
}

// Message is immutable once the store has returned it.
type Message struct {
	ID              string        `json:"id"`
	RoomID          RoomID        `json:"roomId"`
	SenderID        UserID        `json:"senderId"`
	SenderName      string        `json:"senderName"`
	Type            MessageType   `json:"type"`
	Content         string        `json:"content"`
	Voice           *VoicePayload `json:"voiceData,omitempty"`
	ClientMessageID string        `json:"clientMessageId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}
