package dto

import (
	"strings"

	"github.com/google/uuid"

	uModel "automark_backend/internals/features/users/user/model"
)

/* =======================================================
   REQUEST DTOs
   ======================================================= */

// RegisterRequest: body POST /api/register
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=4,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=teacher student"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// ToModel: password harus sudah di-hash oleh service.
func (r *RegisterRequest) ToModel(passwordHash string) *uModel.UserModel {
	m := &uModel.UserModel{
		UserName: r.Username,
		Password: passwordHash,
		Role:     r.Role,
		IsActive: true,
	}
	if r.Email != "" {
		email := r.Email
		m.Email = &email
	}
	m.SetDefaultValues()
	return m
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
	Role    string `json:"role" validate:"omitempty,oneof=teacher student"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=4,max=128"`
}

/* =======================================================
   RESPONSE DTOs
   ======================================================= */

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Email    *string   `json:"email,omitempty"`
}

func FromModel(u *uModel.UserModel) UserResponse {
	return UserResponse{ID: u.ID, Username: u.UserName, Role: u.Role, Email: u.Email}
}
