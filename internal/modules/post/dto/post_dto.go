package dto

import (
	"time"

	"anoa.com/blogapp/internal/entity"
	commonDto "anoa.com/blogapp/pkg/dto"
)

type CreatePostRequest struct {
	Title       string `json:"title" binding:"required,notblank,min=5,max=200"`
	Content     string `json:"content" binding:"required,notblank,min=10,max=5000"`
	CategoryIDs []uint `json:"categoryIds" binding:"omitempty,max=10,dive,gt=0"`
}

type UpdatePostRequest struct {
	Title       string `json:"title" binding:"required,notblank,min=5,max=200"`
	Content     string `json:"content" binding:"required,notblank,min=10,max=5000"`
	CategoryIDs []uint `json:"categoryIds" binding:"omitempty,max=10,dive,gt=0"`
}

type CreatePostResponse struct {
	Message string `json:"message"`
	PostID  uint   `json:"postId"`
}

type PostResponse struct {
	PostID       uint                         `json:"postId"`
	Title        string                       `json:"title"`
	Content      string                       `json:"content"`
	UserID       uint                         `json:"userId"`
	User         commonDto.AuthorResponse     `json:"user"`
	Categories   []commonDto.CategoryResponse `json:"categories"`
	CommentCount int64                        `json:"commentCount"`
	CreateDate   time.Time                    `json:"createDate"`
	UpdateDate   *time.Time                   `json:"updateDate"`
}

type SearchQuery struct {
	Q     string `form:"q" binding:"required,notblank,max=200"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func NewPostResponse(post *entity.Post, commentCount int64) PostResponse {
	return PostResponse{
		PostID:       post.ID,
		Title:        post.Title,
		Content:      post.Content,
		UserID:       post.UserID,
		User:         commonDto.NewAuthorResponse(&post.User),
		Categories:   commonDto.NewCategoryResponses(post.Categories),
		CommentCount: commentCount,
		CreateDate:   post.CreatedAt,
		UpdateDate:   post.UpdatedAt,
	}
}
