package chat

import (
	"context"
	"fmt"

	"securechat/internal/store"
)

const profileKey = store.PrefixProfile + "self"

// Profile returns this account's own profile.
func (a *Account) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := a.sealAndGet(ctx, profileKey, &p); err != nil {
		return nil, fmt.Errorf("chat: load profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile applies non-empty fields from updates to the stored
// profile; an empty string in either field leaves that field untouched.
func (a *Account) UpdateProfile(ctx context.Context, displayName, statusMessage string) (*Profile, error) {
	p, err := a.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if displayName != "" {
		p.DisplayName = displayName
	}
	if statusMessage != "" {
		p.StatusMessage = statusMessage
	}
	if err := a.sealAndPut(ctx, profileKey, p); err != nil {
		return nil, fmt.Errorf("chat: store profile: %w", err)
	}
	return p, nil
}
