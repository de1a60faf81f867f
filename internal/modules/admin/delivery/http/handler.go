package handler

import (
	"net/http"

	"anoa.com/blogapp/internal/modules/admin/dto"
	adminService "anoa.com/blogapp/internal/modules/admin/service"
	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService adminService.AdminService
}

func NewAdminHandler(adminService adminService.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	res, err := h.adminService.GetAllUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) UpdateUserRoles(c *gin.Context) {
	actorID, userID, ok := h.ids(c)
	if !ok {
		return
	}

	var input dto.UpdateUserRolesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.adminService.UpdateUserRoles(c.Request.Context(), actorID, userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	actorID, userID, ok := h.ids(c)
	if !ok {
		return
	}

	var input dto.UpdateUserStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.adminService.SetUserStatus(c.Request.Context(), actorID, userID, *input.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ids returns the acting admin and the target user from the path.
func (h *AdminHandler) ids(c *gin.Context) (uint, uint, bool) {
	actorID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return 0, 0, false
	}

	id, err := response.IDParam(c, "id")
	if err == nil && id <= 0 {
		err = apperror.BadRequest("Invalid user ID")
	}
	if err != nil {
		response.Error(c, err)
		return 0, 0, false
	}
	return actorID, uint(id), true
}
