package model

// User is the denormalized backend user record kept with a session.
// Only used for greeting text; the backend owns the authoritative copy.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// VerifyTwoFactorRequest is the body for POST /auth/verify-2fa.
type VerifyTwoFactorRequest struct {
	UserID int64  `json:"user_id"`
	Code   string `json:"code"`
}

// LoginResult is the response to login or 2FA verification. Either
// Requires2FA is set together with PendingUserID, or Token and User are.
type LoginResult struct {
	Requires2FA   bool   `json:"requires_2fa,omitempty"`
	PendingUserID int64  `json:"user_id,omitempty"`
	Token         string `json:"token,omitempty"`
	User          User   `json:"user,omitempty"`
}
