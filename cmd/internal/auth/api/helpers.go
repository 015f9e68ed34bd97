package authapi

import (
	"authd/cmd/identity"
	"authd/cmd/internal/auth/session"
)

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           u.Email,
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
	}
}

func toSessionResponse(s session.Session) sessionResponse {
	return sessionResponse{ExpiresAt: s.ExpiresAt}
}
