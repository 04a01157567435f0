package domain

import (
	"strings"
	"time"
)

// Valid user roles
const (
	RoleAdmin   = "admin"
	RoleRegular = "regular"
)

var validRoles = map[string]bool{
	RoleAdmin:   true,
	RoleRegular: true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

type User struct {
	ID           string    `json:"id"`
	LastName     string    `json:"lastName"`
	FirstName    string    `json:"firstName"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type UserInfo struct {
	ID        string    `json:"id"`
	LastName  string    `json:"lastName"`
	FirstName string    `json:"firstName"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToUserInfo converts User to UserInfo (without credentials)
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:        u.ID,
		LastName:  u.LastName,
		FirstName: u.FirstName,
		Phone:     u.Phone,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type RegisterRequest struct {
	LastName        string `json:"lastName" validate:"required"`
	FirstName       string `json:"firstName" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	Email           string `json:"email" validate:"required,clinic_email"`
	Role            string `json:"role,omitempty" validate:"omitempty,oneof=admin regular"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type RegisterResponse struct {
	Message string    `json:"message"`
	User    *UserInfo `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expiresIn"`
	User      *UserInfo `json:"user"`
}

// UpdateUserRequest holds only the fields the caller sent.
type UpdateUserRequest struct {
	LastName        *string `json:"lastName,omitempty"`
	FirstName       *string `json:"firstName,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Email           *string `json:"email,omitempty"`
	Role            *string `json:"role,omitempty"`
	Password        *string `json:"password,omitempty"`
	ConfirmPassword *string `json:"confirmPassword,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	r.LastName = NormalizeName(r.LastName)
	r.FirstName = NormalizeName(r.FirstName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = NormalizeEmail(r.Email)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *RegisterRequest) Validate() error {
	return validateStruct(r)
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	return validateStruct(r)
}

func (r *UpdateUserRequest) Normalize() {
	trim := func(p *string, f func(string) string) {
		if p != nil {
			*p = f(*p)
		}
	}
	trim(r.LastName, NormalizeName)
	trim(r.FirstName, NormalizeName)
	trim(r.Phone, strings.TrimSpace)
	trim(r.Email, NormalizeEmail)
	trim(r.Role, func(s string) string { return strings.ToLower(strings.TrimSpace(s)) })
}

func (r *UpdateUserRequest) Validate() error {
	if r.LastName != nil && *r.LastName == "" {
		return Validation("lastName cannot be empty")
	}
	if r.FirstName != nil && *r.FirstName == "" {
		return Validation("firstName cannot be empty")
	}
	if r.Phone != nil && *r.Phone == "" {
		return Validation("phone cannot be empty")
	}
	if r.Email != nil && !IsValidEmail(*r.Email) {
		return Validation("invalid email format")
	}
	if r.Role != nil && !IsValidRole(*r.Role) {
		return Validation("invalid role")
	}
	if r.Password != nil {
		if *r.Password == "" {
			return Validation("password cannot be empty")
		}
		if r.ConfirmPassword == nil || *r.ConfirmPassword == "" {
			return Validation("confirmPassword is required when changing the password")
		}
		if *r.ConfirmPassword != *r.Password {
			return Validation("passwords do not match")
		}
	}
	return nil
}

// Empty reports whether the request carries no field to change.
func (r *UpdateUserRequest) Empty() bool {
	return r.LastName == nil && r.FirstName == nil && r.Phone == nil &&
		r.Email == nil && r.Role == nil && r.Password == nil
}
