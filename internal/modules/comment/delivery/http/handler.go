package handler

import (
	"fmt"
	"net/http"

	"anoa.com/blogapp/internal/middleware"
	commentDto "anoa.com/blogapp/internal/modules/comment/dto"
	commentService "anoa.com/blogapp/internal/modules/comment/service"
	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	service commentService.CommentService
}

func NewCommentHandler(service commentService.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, err := response.IDParam(c, "postId")
	if err != nil {
		response.Error(c, err)
		return
	}

	comments, err := h.service.GetComments(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) GetComment(c *gin.Context) {
	commentID, err := response.IDParam(c, "commentId")
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.GetComment(c.Request.Context(), commentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *CommentHandler) GetMyComments(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	comments, err := h.service.GetMyComments(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) AddComment(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	var req commentDto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.AddComment(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/api/comment/%d", res.ID))
	c.JSON(http.StatusCreated, res)
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID, err := response.IDParam(c, "commentId")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req commentDto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	actor, _ := middleware.CurrentUser(c)
	res, err := h.service.UpdateComment(c.Request.Context(), actor, commentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, err := response.IDParam(c, "commentId")
	if err != nil {
		response.Error(c, err)
		return
	}

	actor, _ := middleware.CurrentUser(c)
	if err := h.service.DeleteComment(c.Request.Context(), actor, commentID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
