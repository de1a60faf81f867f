package dto

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100,category_name"`
}
