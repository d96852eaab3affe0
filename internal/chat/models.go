package chat

import (
	"time"

	"github.com/google/uuid"

	"securechat/internal/envelope"
)

// Contact is a known conversation partner's identity, keyed by their
// long-term Ed25519 public key.
type Contact struct {
	ID          uuid.UUID  `json:"id"`
	DisplayName string     `json:"display_name"`
	IdentityKey []byte     `json:"identity_key"`
	AddedAt     time.Time  `json:"added_at"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
	Verified    bool       `json:"verified"`
	Blocked     bool       `json:"blocked"`
}

// Conversation is the per-contact ratchet session record: metadata the
// UI needs, not the ratchet state itself (that lives in RatchetManager
// and its sealed persisted form under store.PrefixRatchetState).
type Conversation struct {
	ID                 uuid.UUID `json:"id"`
	ContactID          uuid.UUID `json:"contact_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	LastMessagePreview string    `json:"last_message_preview,omitempty"`
	UnreadCount        uint32    `json:"unread_count"`
	Archived           bool      `json:"archived"`
	Pinned             bool      `json:"pinned"`
}

// Profile is this account's own display identity.
type Profile struct {
	DisplayName   string    `json:"display_name"`
	StatusMessage string    `json:"status_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Platform identifies the OS a linked device runs on.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
	PlatformMacOS   Platform = "macos"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformUnknown Platform = "unknown"
)

// Device is a linked device record: every account can have more than one,
// synchronized via cmd/syncrelay.
type Device struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Platform   Platform  `json:"platform"`
	LinkedAt   time.Time `json:"linked_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// LocalMessage is a message as stored on this device: decrypted, with
// delivery-state bookkeeping the ratchet layer has no notion of.
type LocalMessage struct {
	ID             uuid.UUID               `json:"id"`
	ConversationID uuid.UUID               `json:"conversation_id"`
	Outgoing       bool                    `json:"outgoing"`
	Content        envelope.MessageContent `json:"content"`
	SentAt         time.Time               `json:"sent_at"`
	Delivered      bool                    `json:"delivered"`
	Read           bool                    `json:"read"`
}
