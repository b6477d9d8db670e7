package models

import "time"

// User represents a registered account. Email is the stable identifier;
// username is the public handle shown on profiles.
type User struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Image        string    `json:"image,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Follower is a follow edge: Follower (a username) follows the user
// identified by Email. The pair is the primary key.
type Follower struct {
	Email    string `json:"email"`
	Follower string `json:"follower"`
}

// Profile is how a user appears to other users, relative to the requesting
// identity.
type Profile struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

// RegisterRequest is the body of POST /api/users.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username" validate:"required,min=3,alphanum"`
}

// LoginRequest is the body of POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateUserRequest is the body of PUT /api/users. All fields are optional;
// empty fields leave the stored value unchanged.
type UpdateUserRequest struct {
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
	Username string `json:"username,omitempty" validate:"omitempty,min=3,alphanum"`
	Image    string `json:"image,omitempty"`
	Bio      string `json:"bio,omitempty"`
}
