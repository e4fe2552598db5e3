package grpc

import (
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// LoginRequest follows the OAuth2 password form: Username is the email.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RefreshRequest carries the refresh token; when empty the refresh_token
// metadata entry is used instead.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type AbortAllSessionsRequest struct{}

type AbortAllSessionsResponse struct {
	Message string `json:"message"`
	Revoked int64  `json:"revoked"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type GetMeRequest struct{}

type UpdateMeRequest struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty"`
}

type DeleteMeRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type ListUsersRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type ListUsersResponse struct {
	Users []*UserResponse `json:"users"`
}

type GetUserRequest struct {
	ID string `json:"id"`
}

type UpdateUserRequest struct {
	ID          string  `json:"id"`
	Email       *string `json:"email,omitempty"`
	FullName    *string `json:"full_name,omitempty"`
	Password    *string `json:"password,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsVerified  *bool   `json:"is_verified,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
}

type DeleteUserRequest struct {
	ID string `json:"id"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

// UserResponse is the public view of a user; the password hash is never
// sent.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsVerified  bool      `json:"is_verified"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
	}
}

func toTokenResponse(p *models.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
	}
}
