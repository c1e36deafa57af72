package models

import "time"

// UserRole distinguishes administrators from applicants.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleApplicant UserRole = "applicant"
)

// UserStatus controls whether an account may sign in.
type UserStatus string

const (
	StatusActive   UserStatus = "Active"
	StatusDisabled UserStatus = "Disabled"
)

// User represents an application account.
type User struct {
	ID           string     `db:"id" json:"id"`
	FullName     string     `db:"full_name" json:"fullName"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Disabled reports whether the account has been switched off by an administrator.
func (u *User) Disabled() bool {
	return u.Status == StatusDisabled
}

// UserInfo is the public projection of a user returned by the API.
type UserInfo struct {
	ID        string     `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Role      UserRole   `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Info strips the credential fields from a user.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
