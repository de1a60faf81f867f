package handler

import (
	"net/http"

	"anoa.com/blogapp/internal/middleware"
	"anoa.com/blogapp/internal/modules/user/dto"
	userService "anoa.com/blogapp/internal/modules/user/service"
	"anoa.com/blogapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	userService userService.UserService
}

func NewAccountHandler(userService userService.UserService) *AccountHandler {
	return &AccountHandler{userService: userService}
}

func (h *AccountHandler) AddUser(c *gin.Context) {
	var req dto.AddUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.userService.AddUser(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, "Added Successfully")
}

func (h *AccountHandler) LoginUser(c *gin.Context) {
	var req dto.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.userService.LoginUser(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) GetUserProfile(c *gin.Context) {
	userID, err := response.IDQuery(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.userService.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) UpdateUserProfile(c *gin.Context) {
	var req dto.UpdateUserProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	actor, _ := middleware.CurrentUser(c)
	if err := h.userService.UpdateUserProfile(c.Request.Context(), actor, req); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}
