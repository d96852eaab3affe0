package chat

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"securechat/internal/envelope"
	"securechat/internal/store"
)

func messageKey(conversationID, messageID uuid.UUID) string {
	return store.MessageKey(conversationID.String(), messageID.String())
}

// SendMessage advances conversationID's sending ratchet chain, seals
// content, signs the resulting wire envelope with this account's identity
// key, and returns the bytes ready to hand to a transport.SendDirect. It
// also appends the message to local history and updates the
// conversation's preview.
func (a *Account) SendMessage(ctx context.Context, conversationID uuid.UUID, content envelope.MessageContent) ([]byte, *LocalMessage, error) {
	state, err := a.ratchets.Get(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := json.Marshal(content)
	if err != nil {
		return nil, nil, fmt.Errorf("chat: marshal message content: %w", err)
	}

	aad := conversationID[:]
	out, err := state.Send(plaintext, aad)
	if err != nil {
		return nil, nil, fmt.Errorf("chat: ratchet send: %w", err)
	}
	if err := a.ratchets.PersistAfter(ctx, conversationID); err != nil {
		return nil, nil, err
	}

	wireMsg := envelope.FromOutgoing(out, a.identity.Sign)
	protocolMsg := envelope.NewEncrypted(conversationID, wireMsg.Encode())
	wireBytes, err := json.Marshal(protocolMsg)
	if err != nil {
		return nil, nil, fmt.Errorf("chat: marshal protocol message: %w", err)
	}

	local := &LocalMessage{
		ID:             protocolMsg.MessageID,
		ConversationID: conversationID,
		Outgoing:       true,
		Content:        content,
		SentAt:         protocolMsg.Timestamp,
	}
	if err := a.sealAndPut(ctx, messageKey(conversationID, local.ID), local); err != nil {
		return nil, nil, fmt.Errorf("chat: store sent message: %w", err)
	}
	if err := a.touchConversation(ctx, conversationID, content.Preview(), false); err != nil {
		return nil, nil, err
	}

	return wireBytes, local, nil
}

// ReceiveMessage decodes an inbound ProtocolMessage, verifies its wire
// signature against senderIdentity, and advances the receiving ratchet
// chain to recover the plaintext content. It stores the result in local
// history and increments the conversation's unread counter. The local
// conversation is the one held with the contact whose identity key is
// senderIdentity; the sender's own conversation ID is used only as AEAD
// associated data.
func (a *Account) ReceiveMessage(ctx context.Context, wireBytes []byte, senderIdentity ed25519.PublicKey) (*LocalMessage, error) {
	var protocolMsg envelope.ProtocolMessage
	if err := json.Unmarshal(wireBytes, &protocolMsg); err != nil {
		return nil, fmt.Errorf("chat: unmarshal protocol message: %w", err)
	}
	if err := protocolMsg.Validate(); err != nil {
		return nil, fmt.Errorf("chat: invalid protocol message: %w", err)
	}
	if protocolMsg.Kind != envelope.KindEncrypted {
		return nil, fmt.Errorf("chat: expected kind %q, got %q", envelope.KindEncrypted, protocolMsg.Kind)
	}

	wireMsg, err := envelope.Decode(protocolMsg.Envelope)
	if err != nil {
		return nil, fmt.Errorf("chat: decode wire envelope: %w", err)
	}
	if err := wireMsg.Verify(senderIdentity); err != nil {
		return nil, err
	}

	var conv *Conversation
	contacts, err := a.Contacts(ctx)
	for i := 0; err == nil && conv == nil && i < len(contacts); i++ {
		if senderIdentity.Equal(ed25519.PublicKey(contacts[i].IdentityKey)) {
			conv, err = a.conversationByContact(ctx, contacts[i].ID)
		}
	}
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("chat: no conversation with message sender: %w", store.ErrNotFound)
	}
	conversationID := conv.ID
	state, err := a.ratchets.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	aad := protocolMsg.ConversationID[:]
	plaintext, err := state.Receive(wireMsg.ToOutgoing(), aad)
	if err != nil {
		return nil, fmt.Errorf("chat: ratchet receive: %w", err)
	}
	if err := a.ratchets.PersistAfter(ctx, conversationID); err != nil {
		return nil, err
	}

	var content envelope.MessageContent
	if err := json.Unmarshal(plaintext, &content); err != nil {
		return nil, fmt.Errorf("chat: unmarshal message content: %w", err)
	}

	local := &LocalMessage{
		ID:             protocolMsg.MessageID,
		ConversationID: conversationID,
		Outgoing:       false,
		Content:        content,
		SentAt:         protocolMsg.Timestamp,
		Delivered:      true,
	}
	if err := a.sealAndPut(ctx, messageKey(conversationID, local.ID), local); err != nil {
		return nil, fmt.Errorf("chat: store received message: %w", err)
	}
	if err := a.touchConversation(ctx, conversationID, content.Preview(), true); err != nil {
		return nil, err
	}

	return local, nil
}

// Messages lists a conversation's local message history in storage order.
func (a *Account) Messages(ctx context.Context, conversationID uuid.UUID) ([]LocalMessage, error) {
	raws, err := a.db.Scan(ctx, store.PrefixMessage+conversationID.String()+"/")
	if err != nil {
		return nil, fmt.Errorf("chat: scan messages: %w", err)
	}
	messages := make([]LocalMessage, 0, len(raws))
	for _, raw := range raws {
		var m LocalMessage
		if err := unsealBlob(raw, a.masterKey, &m); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}
