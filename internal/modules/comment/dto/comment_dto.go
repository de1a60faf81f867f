package dto

import (
	"time"

	"anoa.com/blogapp/internal/entity"
)

type CreateCommentRequest struct {
	PostID  int64  `json:"postId" binding:"required,gt=0"`
	Content string `json:"content" binding:"required,notblank,min=1,max=1000"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,notblank,min=1,max=1000"`
}

type CommentResponse struct {
	ID         uint       `json:"id"`
	PostID     uint       `json:"postId"`
	UserID     uint       `json:"userId"`
	UserName   string     `json:"userName"`
	Content    string     `json:"content"`
	CreateDate time.Time  `json:"createDate"`
	UpdateDate *time.Time `json:"updateDate"`
}

func NewCommentResponse(c *entity.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		PostID:     c.PostID,
		UserID:     c.UserID,
		UserName:   c.User.Username,
		Content:    c.Content,
		CreateDate: c.CreatedAt,
		UpdateDate: c.UpdatedAt,
	}
}

func NewCommentResponses(comments []*entity.Comment) []CommentResponse {
	res := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		res = append(res, NewCommentResponse(c))
	}
	return res
}
