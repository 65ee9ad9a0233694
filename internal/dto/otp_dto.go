package dto

import "time"

// OTPRequest asks for a one-time code to be issued to a phone number.
type OTPRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

// OTPVerifyRequest verifies a previously issued code.
type OTPVerifyRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// OTPIssueResponse reports when the issued code stops being valid.
type OTPIssueResponse struct {
	Phone     string    `json:"phone"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OTPVerifyResponse confirms a successful verification.
type OTPVerifyResponse struct {
	Phone    string `json:"phone"`
	Verified bool   `json:"verified"`
}
