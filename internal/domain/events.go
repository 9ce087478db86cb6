package domain

import "errors"

// Client -> server event types.
const (
	EventUserOnline    = "user-online"
	EventJoinRoom      = "join-room"
	EventLeaveRoom     = "leave-room"
	EventVoiceMessage  = "voice-message"
	EventSendMessage   = "send-message"
	EventSpeakingState = "speaking-state"
	EventPauseVoice    = "pause-voice"
	EventResumeVoice   = "resume-voice"
	EventVoiceData     = "voice-data"
	EventAudioQuality  = "audio-quality"
	EventOffer         = "offer"
	EventAnswer        = "answer"
	EventCandidate     = "candidate"
	EventPing          = "ping"
)

// Server -> client event types.
const (
	EventConnected        = "connected"
	EventUserStatusChange = "user-status-change"
	EventRoomUsersUpdate  = "room-users-update"
	EventUserJoined       = "user-joined"
	EventUserLeft         = "user-left"
	EventNewVoiceMessage  = "new-voice-message"
	EventNewMessage       = "new-message"
	EventUserSpeaking     = "user-speaking"
	EventUserPaused       = "user-paused"
	EventUserResumed      = "user-resumed"
	EventPong             = "pong"
	EventError            = "error"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type ConnectedEvent struct {
	Type     string `json:"type"`
	SocketID string `json:"socketId"`
}

type StatusChangeEvent struct {
	Type   string `json:"type"`
	UserID UserID `json:"userId"`
	Status string `json:"status"`
}

type RoomUsersEvent struct {
	Type   string   `json:"type"`
	RoomID RoomID   `json:"roomId"`
	Users  []UserID `json:"users"`
}

// MemberEvent is user-joined / user-left.
type MemberEvent struct {
	Type     string `json:"type"`
	RoomID   RoomID `json:"roomId"`
	UserID   UserID `json:"userId"`
	SocketID string `json:"socketId"`
}

// MessageEvent is new-message / new-voice-message.
type MessageEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message"`
}

type SpeakingEvent struct {
	Type       string `json:"type"`
	RoomID     RoomID `json:"roomId"`
	UserID     UserID `json:"userId"`
	IsSpeaking bool   `json:"isSpeaking"`
}

// PlaybackEvent is user-paused / user-resumed.
type PlaybackEvent struct {
	Type   string `json:"type"`
	RoomID RoomID `json:"roomId"`
	UserID UserID `json:"userId"`
}

type VoiceDataEvent struct {
	Type     string `json:"type"`
	RoomID   RoomID `json:"roomId"`
	UserID   UserID `json:"userId"`
	SocketID string `json:"socketId"`
	Data     []byte `json:"data"`
}

// PeerSignalEvent carries offer/answer/candidate between two connections.
// From is filled by the server with the sender's connection id.
type PeerSignalEvent struct {
	Type          string  `json:"type"`
	From          string  `json:"from"`
	SDP           string  `json:"sdp,omitempty"`
	Candidate     string  `json:"candidate,omitempty"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

type PongEvent struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var publicErrors = []error{
	ErrUnidentified,
	ErrUserMismatch,
	ErrNotInRoom,
	ErrPeerNotInRoom,
	ErrPersistence,
	ErrRateLimited,
	ErrUserIDEmpty,
	ErrUserIDTooLong,
	ErrUsernameTooLong,
	ErrRoomIDEmpty,
	ErrRoomIDTooLong,
	ErrBadPayload,
}

// NewErrorEvent builds the payload unicast to the sender of a failed event.
// Only sentinel texts reach the client, wrapped causes stay in the logs.
func NewErrorEvent(err error) *ErrorEvent {
	msg := "internal error"
	for _, known := range publicErrors {
		if errors.Is(err, known) {
			msg = known.Error()
			break
		}
	}
	return &ErrorEvent{Type: EventError, Code: ErrorCode(err), Message: msg}
}
