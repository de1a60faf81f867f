package category

import (
	"context"
	"errors"
	"strings"

	"anoa.com/blogapp/internal/entity"
	"anoa.com/blogapp/internal/modules/category/dto"
	"anoa.com/blogapp/internal/modules/category/repository"
	"anoa.com/blogapp/pkg/apperror"
	commonDto "anoa.com/blogapp/pkg/dto"
	"anoa.com/blogapp/pkg/logger"
	"gorm.io/gorm"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*commonDto.CategoryResponse, error)
	GetAllCategories(ctx context.Context) ([]commonDto.CategoryResponse, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*commonDto.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.BadRequest("Category name is required")
	}

	existing, err := s.repo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("Category already exists")
	}

	category := &entity.Category{Name: name}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}

	logger.Log.WithField("category_id", category.ID).Info("category created")
	return &commonDto.CategoryResponse{CategoryID: category.ID, Name: category.Name}, nil
}

func (s *categoryService) GetAllCategories(ctx context.Context) ([]commonDto.CategoryResponse, error) {
	categories, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return commonDto.NewCategoryResponses(categories), nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperror.BadRequest("Category ID must be greater than 0")
	}
	if _, err := s.repo.FindByID(ctx, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Category not found")
		}
		return err
	}
	return s.repo.Delete(ctx, uint(id))
}
