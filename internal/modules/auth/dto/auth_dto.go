package dto

import (
	"io"
	"time"

	"anoa.com/blogapp/internal/entity"
	"anoa.com/blogapp/internal/modules/auth/session"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,username"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=6,max=100,password_policy"`
	Bio      string `json:"bio" binding:"omitempty,max=500"`
}

type RegisterResponse struct {
	Message  string `json:"message"`
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" binding:"required,min=3,max=100"`
	Password        string `json:"password" binding:"required,min=6"`
	RememberMe      bool   `json:"rememberMe"`
}

type UserInfo struct {
	ID             uint     `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Bio            *string  `json:"bio"`
	ProfilePicture *string  `json:"profilePicture"`
	Roles          []string `json:"roles"`
}

// LoginResult is what the handler needs to answer a login: the body and the
// session to put in the cookie.
type LoginResult struct {
	User    UserInfo
	Session *session.Session
}

type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" binding:"required"`
	NewPassword        string `json:"newPassword" binding:"required,min=6,max=100,password_policy,nefield=CurrentPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword" binding:"required,eqfield=NewPassword"`
}

type UpdateProfileRequest struct {
	Bio            string `json:"bio" binding:"omitempty,max=1000"`
	ProfilePicture string `json:"profilePicture" binding:"omitempty,url,max=500"`
}

type ProfileResponse struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Bio            *string   `json:"bio"`
	ProfilePicture *string   `json:"profilePicture"`
	CreateDate     time.Time `json:"createDate"`
	Roles          []string  `json:"roles"`
}

type CurrentUserResponse struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	IsAdmin  bool     `json:"isAdmin"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email,max=100"`
}

type ResetPasswordRequest struct {
	Email              string `json:"email" binding:"required,email,max=100"`
	Token              string `json:"token" binding:"required,min=10"`
	NewPassword        string `json:"newPassword" binding:"required,min=6,max=100,password_policy"`
	ConfirmNewPassword string `json:"confirmNewPassword" binding:"required,eqfield=NewPassword"`
}

// PictureFile is an uploaded profile picture.
type PictureFile struct {
	Reader   io.Reader
	FileName string
}

func NewUserInfo(u *entity.User) UserInfo {
	return UserInfo{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		Roles:          u.RoleNames(),
	}
}

func NewProfileResponse(u *entity.User) *ProfileResponse {
	return &ProfileResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		CreateDate:     u.CreatedAt,
		Roles:          u.RoleNames(),
	}
}
