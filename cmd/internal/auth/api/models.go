package authapi

import "time"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type userResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type sessionResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

type signupResponse struct {
	User                  userResponse     `json:"user"`
	Session               *sessionResponse `json:"session,omitempty"`
	VerificationEmailSent bool             `json:"verification_email_sent"`
}

type loginResponse struct {
	User    userResponse    `json:"user"`
	Session sessionResponse `json:"session"`
}

type meResponse struct {
	User    userResponse    `json:"user"`
	Session sessionResponse `json:"session"`
}

type verifyResponse struct {
	User userResponse `json:"user"`
}
