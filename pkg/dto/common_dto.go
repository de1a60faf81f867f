package dto

import "anoa.com/blogapp/internal/entity"

// AuthorResponse is the public profile attached to posts.
type AuthorResponse struct {
	Username       string  `json:"username"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profilePicture"`
}

type CategoryResponse struct {
	CategoryID uint   `json:"categoryId"`
	Name       string `json:"name"`
}

// PageFilter is an optional page/limit query. Limit 0 means "everything".
type PageFilter struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Offset returns the row offset for the filter.
func (f PageFilter) Offset() int {
	if f.Limit == 0 || f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

func NewCategoryResponses(categories []entity.Category) []CategoryResponse {
	res := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		res = append(res, CategoryResponse{CategoryID: c.ID, Name: c.Name})
	}
	return res
}

func NewAuthorResponse(u *entity.User) AuthorResponse {
	return AuthorResponse{
		Username:       u.Username,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
	}
}
