package envelope

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProtocolMessage kinds. Unlike the wire Message in wire.go (which only
// ever carries ratchet ciphertext), a ProtocolMessage is the outer message:
// KindEncrypted carries an encoded wire Message in its Envelope field, and
// a few kinds (KeyBundle, ContactRequest) must be readable before any
// ratchet exists between two parties.
const (
	KindKeyBundle       = "key_bundle"
	KindEncrypted       = "encrypted"
	KindDeliveryReceipt = "delivery_receipt"
	KindReadReceipt     = "read_receipt"
	KindTyping          = "typing"
	KindProfileUpdate   = "profile_update"
	KindContactRequest  = "contact_request"
	KindContactResponse = "contact_response"
	KindSyncRequest     = "sync_request"
	KindSyncData        = "sync_data"
)

// ProtocolMessage is the outer, JSON-serialized message that flows over a
// Transport before and after ratchet establishment. Most of its fields are
// only meaningful for one Kind; unused fields stay zero and are omitted
// from the wire form.
type ProtocolMessage struct {
	Kind      string    `json:"kind"`
	MessageID uuid.UUID `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`

	// KindKeyBundle
	KeyBundle json.RawMessage `json:"key_bundle,omitempty"`

	// KindEncrypted
	ConversationID uuid.UUID `json:"conversation_id,omitempty"`
	Envelope       []byte    `json:"envelope,omitempty"`

	// KindDeliveryReceipt / KindReadReceipt
	AcknowledgedMessageID uuid.UUID `json:"acknowledged_message_id,omitempty"`

	// KindTyping
	IsTyping bool `json:"is_typing,omitempty"`

	// KindProfileUpdate
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`

	// KindContactRequest / KindContactResponse
	ContactIdentityKey []byte `json:"contact_identity_key,omitempty"`
	Accepted           bool   `json:"accepted,omitempty"`

	// KindSyncRequest / KindSyncData
	DeviceID uuid.UUID `json:"device_id,omitempty"`
	SyncBlob []byte    `json:"sync_blob,omitempty"`
}

// NewEncrypted wraps a wire-encoded ratchet Message for a conversation.
func NewEncrypted(conversationID uuid.UUID, wireMessage []byte) *ProtocolMessage {
	return &ProtocolMessage{
		Kind:           KindEncrypted,
		MessageID:      uuid.New(),
		Timestamp:      time.Now(),
		ConversationID: conversationID,
		Envelope:       wireMessage,
	}
}

// Validate checks that the fields a Kind requires are actually present.
// It does not validate cross-field business rules (e.g. that
// ConversationID refers to a conversation the caller actually has) —
// that belongs to internal/chat.
func (p *ProtocolMessage) Validate() error {
	switch p.Kind {
	case KindKeyBundle:
		if len(p.KeyBundle) == 0 {
			return ErrShortBuffer
		}
	case KindEncrypted:
		if len(p.Envelope) == 0 {
			return ErrShortBuffer
		}
	case KindDeliveryReceipt, KindReadReceipt:
		if p.AcknowledgedMessageID == uuid.Nil {
			return ErrShortBuffer
		}
	case KindTyping, KindProfileUpdate, KindContactRequest, KindContactResponse,
		KindSyncRequest, KindSyncData:
		// no required fields beyond Kind itself
	default:
		return ErrUnknownKind
	}
	return nil
}
