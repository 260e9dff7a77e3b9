package model

import "time"

type Role string

const (
	RoleLender   Role = "lender"
	RoleBorrower Role = "borrower"
)

type User struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name          string    `json:"name" bson:"name"`
	Email         string    `json:"email" bson:"email"`
	PhoneNumber   string    `json:"phone_number" bson:"phone_number"`
	Role          Role      `json:"role" bson:"role"`
	PasswordHash  string    `json:"-" bson:"password_hash"`
	Image         string    `json:"image,omitempty" bson:"image,omitempty"`
	PhoneVerified bool      `json:"phone_verified" bson:"phone_verified"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

type Registration struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
	Role        Role   `json:"role" validate:"required,oneof=lender borrower"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	Image       string `json:"image,omitempty" validate:"omitempty,url"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PhoneCode struct {
	Code string `json:"code" validate:"required,numeric,min=4,max=10"`
}

// PhoneVerification reports the outcome of a code check.
type PhoneVerification struct {
	Status        string `json:"status"`
	PhoneVerified bool   `json:"phone_verified"`
}

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
