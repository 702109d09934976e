// Package models holds client-side data transfer types shared by the
// transport, session, and service layers.
package models

// UserProfile mirrors the backend's user representation returned by
// GET /auth/me and embedded in registration and OAuth responses.
type UserProfile struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	Username         string `json:"username"`
	FullName         string `json:"full_name,omitempty"`
	Company          string `json:"company,omitempty"`
	SubscriptionPlan string `json:"subscription_plan"`
	IsVerified       bool   `json:"is_verified"`
}

// Session pairs the bearer credential with the profile it authenticates.
// The session store owns the only live instance; everything else reads it.
type Session struct {
	Credential string
	User       UserProfile
}

// Registration is the payload for POST /auth/register.
type Registration struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	Company  string `json:"company,omitempty"`
}

// Signup extends Registration with the code required by
// POST /auth/signup-with-verification.
type Signup struct {
	Registration
	VerificationCode string `json:"verification_code"`
}
