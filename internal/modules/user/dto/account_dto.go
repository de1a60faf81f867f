package dto

type AddUserRequest struct {
	Username       string `json:"username" binding:"required,min=3,max=50,username"`
	Email          string `json:"email" binding:"required,email,max=100"`
	Password       string `json:"password" binding:"required,min=6,max=100"`
	ProfilePicture string `json:"profilePicture" binding:"omitempty,url,max=500"`
	Bio            string `json:"bio" binding:"omitempty,max=1000"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginUserResponse struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
}

type UserProfileResponse struct {
	Username       string  `json:"username"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profilePicture"`
}

type UpdateUserProfileRequest struct {
	UserID         int64  `json:"userId"`
	Username       string `json:"username" binding:"required,min=3,max=50,username"`
	Bio            string `json:"bio" binding:"omitempty,max=1000"`
	ProfilePicture string `json:"profilePicture" binding:"omitempty,url,max=500"`
}
