package handler

import (
	"net/http"

	"anoa.com/blogapp/internal/middleware"
	postDto "anoa.com/blogapp/internal/modules/post/dto"
	post "anoa.com/blogapp/internal/modules/post/service"
	"anoa.com/blogapp/pkg/dto"
	"anoa.com/blogapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	service post.PostService
}

func NewPostHandler(service post.PostService) *PostHandler {
	return &PostHandler{service: service}
}

func (h *PostHandler) GetPosts(c *gin.Context) {
	var filter dto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	posts, err := h.service.GetPosts(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetPostByID(c *gin.Context) {
	postID, err := response.IDParam(c, "postId")
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.GetPost(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *PostHandler) GetUserPosts(c *gin.Context) {
	userID, err := response.IDQuery(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}

	posts, err := h.service.GetUserPosts(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) CategoryFilter(c *gin.Context) {
	categoryID, err := response.IDQuery(c, "categoryId")
	if err != nil {
		response.Error(c, err)
		return
	}

	posts, err := h.service.GetPostsByCategory(c.Request.Context(), categoryID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) Search(c *gin.Context) {
	var query postDto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	posts, err := h.service.SearchPosts(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req postDto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.CreatePost(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID, err := response.IDParam(c, "postId")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req postDto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	actor, _ := middleware.CurrentUser(c)
	res, err := h.service.UpdatePost(c.Request.Context(), actor, postID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, err := response.IDParam(c, "postId")
	if err != nil {
		response.Error(c, err)
		return
	}

	actor, _ := middleware.CurrentUser(c)
	if err := h.service.DeletePost(c.Request.Context(), actor, postID); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
