package domain

import "time"

// Gender values accepted on profile completion.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Account is one record per phone number. The phone number is the partition
// key and never changes after creation. OTPHash holds a bcrypt hash of the
// current one-time code; the plaintext code is never stored. OTPExpiresAt is
// a Unix timestamp doubling as the DynamoDB TTL attribute.
type Account struct {
	PhoneNumber  string    `json:"phone_number" dynamodbav:"phone_number"`
	OTPHash      string    `json:"-" dynamodbav:"otp_hash,omitempty"`
	OTPExpiresAt int64     `json:"-" dynamodbav:"otp_expires_at,omitempty"`
	IsVerified   bool      `json:"is_verified" dynamodbav:"is_verified"`
	FullName     string    `json:"full_name,omitempty" dynamodbav:"full_name,omitempty"`
	Email        string    `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Gender       string    `json:"gender,omitempty" dynamodbav:"gender,omitempty"`
	DateOfBirth  string    `json:"date_of_birth,omitempty" dynamodbav:"date_of_birth,omitempty"` // YYYY-MM-DD, stored opaque
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,e164"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,e164"`
}

type VerifyRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,e164"`
	Code        string `json:"code" validate:"required,numeric"`
}

// CompleteRegistrationRequest overwrites the profile wholesale: fields left
// out by the caller are written back as empty.
type CompleteRegistrationRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,e164"`
	FullName    string `json:"fullName"`
	Email       string `json:"email" validate:"omitempty,email"`
	Gender      string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
}
