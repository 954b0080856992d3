package notifications

import (
	"context"

	"github.com/albapepper/coach-notify/internal/store"
)

// Resolver looks up a recipient's display name and delivery token.
type Resolver struct {
	store store.Store
}

// NewResolver creates a Resolver.
func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the user's profile. A missing user yields an empty,
// unreachable profile and no error; only store faults are returned.
func (r *Resolver) Resolve(ctx context.Context, userID string) (Profile, error) {
	if userID == "" {
		return Profile{}, nil
	}
	u, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return Profile{UserID: userID}, storeErr("get user", err)
	}
	return profileOf(userID, u), nil
}

func profileOf(userID string, u *store.User) Profile {
	if u == nil {
		return Profile{UserID: userID}
	}
	p := Profile{
		UserID:      u.ID,
		DisplayName: u.Name,
		Token:       u.Token(),
		Found:       true,
	}
	if u.CoachID != nil {
		p.CoachID = *u.CoachID
	}
	return p
}
