package envelope

import "fmt"

// ContentKind discriminates MessageContent variants. This is what actually
// sits inside a KindEncrypted ProtocolMessage's plaintext once decrypted —
// the tagged union the Rust original called MessageContent.
type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentImage    ContentKind = "image"
	ContentFile     ContentKind = "file"
	ContentVoice    ContentKind = "voice"
	ContentLocation ContentKind = "location"
	ContentContact  ContentKind = "contact"
)

// AttachmentRef points at an encrypted blob in object storage (see
// internal/media) and carries the key needed to decrypt it. The key
// travels inside the same AEAD envelope as everything else here, so the
// storage layer itself never sees plaintext or key material.
type AttachmentRef struct {
	ObjectKey     string   `json:"object_key"`
	DecryptionKey [32]byte `json:"decryption_key"`
	SizeBytes     int64    `json:"size_bytes"`
	MIMEType      string   `json:"mime_type,omitempty"`
	Filename      string   `json:"filename,omitempty"`
}

// MessageContent is the decrypted payload of a chat message. Exactly one
// of the kind-specific fields is populated, matching Kind.
type MessageContent struct {
	Kind ContentKind `json:"kind"`

	Text string `json:"text,omitempty"`

	Image *AttachmentRef `json:"image,omitempty"`
	File  *AttachmentRef `json:"file,omitempty"`
	Voice *AttachmentRef `json:"voice,omitempty"`

	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`

	ContactIdentityKey []byte `json:"contact_identity_key,omitempty"`
	ContactDisplayName string `json:"contact_display_name,omitempty"`
}

// Preview returns a short human-readable summary suitable for a
// notification or conversation list, never the full payload.
func (c *MessageContent) Preview() string {
	switch c.Kind {
	case ContentText:
		return truncate(c.Text, 80)
	case ContentImage:
		return "📷 Photo"
	case ContentFile:
		name := "File"
		if c.File != nil && c.File.Filename != "" {
			name = c.File.Filename
		}
		return fmt.Sprintf("📎 %s", name)
	case ContentVoice:
		return "🎤 Voice message"
	case ContentLocation:
		return "📍 Location"
	case ContentContact:
		return fmt.Sprintf("👤 %s", c.ContactDisplayName)
	default:
		return ""
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
