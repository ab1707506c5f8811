// Package models holds the data shapes the backend returns inside the response
// envelope. The CLI decodes them and the server encodes them.
package models

// Health is returned by GET / and GET /health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// HelloUser is the caller as seen by GET /auth/hello.
type HelloUser struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Hello is returned by GET /auth/hello.
type Hello struct {
	Message  string    `json:"message"`
	User     HelloUser `json:"user"`
	AuthTime int64     `json:"auth_time"`
}

// Protected is returned by POST /auth/protected.
type Protected struct {
	Message           string         `json:"message"`
	ReceivedData      map[string]any `json:"received_data"`
	AuthenticatedUser string         `json:"authenticated_user"`
	UserID            string         `json:"user_id"`
}

// Profile is returned by GET /user/profile. Name and Picture are null when
// the credential carries no such claim.
type Profile struct {
	UID           string         `json:"uid"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	Name          *string        `json:"name"`
	Picture       *string        `json:"picture"`
	AuthTime      int64          `json:"auth_time"`
	Firebase      map[string]any `json:"firebase"`
}
