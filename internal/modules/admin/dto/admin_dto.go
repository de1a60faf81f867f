package dto

import (
	"time"

	"anoa.com/blogapp/internal/entity"
)

type AdminUserResponse struct {
	ID             uint      `json:"id"`
	UserName       string    `json:"userName"`
	Email          string    `json:"email"`
	ProfilePicture *string   `json:"profilePicture"`
	Bio            *string   `json:"bio"`
	IsActive       bool      `json:"isActive"`
	CreateDate     time.Time `json:"createDate"`
	Roles          []string  `json:"roles"`
}

type UpdateUserRolesInput struct {
	Roles []string `json:"roles" binding:"required,min=1,dive,required"`
}

type UpdateUserStatusInput struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

func NewAdminUserResponse(u *entity.User) *AdminUserResponse {
	return &AdminUserResponse{
		ID:             u.ID,
		UserName:       u.Username,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		IsActive:       u.IsActive,
		CreateDate:     u.CreatedAt,
		Roles:          u.RoleNames(),
	}
}
