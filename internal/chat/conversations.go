package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"securechat/internal/store"
)

func conversationKey(id uuid.UUID) string {
	return store.PrefixConversation + id.String()
}

// GetOrCreateConversation returns the existing conversation with
// contactID, creating one if none exists yet. A fresh conversation has no
// ratchet state of its own — callers establish one via
// EstablishConversation or AcceptConversation before the first message
// can actually be sent or received.
func (a *Account) GetOrCreateConversation(ctx context.Context, contactID uuid.UUID) (*Conversation, error) {
	existing, err := a.conversationByContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	conv := &Conversation{
		ID:         uuid.New(),
		ContactID:  contactID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.sealAndPut(ctx, conversationKey(conv.ID), conv); err != nil {
		return nil, fmt.Errorf("chat: store conversation: %w", err)
	}
	return conv, nil
}

func (a *Account) conversationByContact(ctx context.Context, contactID uuid.UUID) (*Conversation, error) {
	convs, err := a.Conversations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].ContactID == contactID {
			return &convs[i], nil
		}
	}
	return nil, nil
}

// Conversations lists every conversation.
func (a *Account) Conversations(ctx context.Context) ([]Conversation, error) {
	raws, err := a.db.Scan(ctx, store.PrefixConversation)
	if err != nil {
		return nil, fmt.Errorf("chat: scan conversations: %w", err)
	}
	convs := make([]Conversation, 0, len(raws))
	for _, raw := range raws {
		var c Conversation
		if err := unsealBlob(raw, a.masterKey, &c); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, nil
}

// touchConversation updates a conversation's preview/unread bookkeeping
// after a message is sent or received.
func (a *Account) touchConversation(ctx context.Context, conversationID uuid.UUID, preview string, incrementUnread bool) error {
	var conv Conversation
	if err := a.sealAndGet(ctx, conversationKey(conversationID), &conv); err != nil {
		return fmt.Errorf("chat: load conversation: %w", err)
	}
	conv.UpdatedAt = time.Now().UTC()
	conv.LastMessagePreview = preview
	if incrementUnread {
		conv.UnreadCount++
	}
	return a.sealAndPut(ctx, conversationKey(conversationID), &conv)
}

// MarkConversationRead resets a conversation's unread counter.
func (a *Account) MarkConversationRead(ctx context.Context, conversationID uuid.UUID) error {
	var conv Conversation
	if err := a.sealAndGet(ctx, conversationKey(conversationID), &conv); err != nil {
		return fmt.Errorf("chat: load conversation: %w", err)
	}
	conv.UnreadCount = 0
	return a.sealAndPut(ctx, conversationKey(conversationID), &conv)
}
