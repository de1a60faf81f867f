package category

import (
	"context"
	"testing"

	"anoa.com/blogapp/internal/entity"
	"anoa.com/blogapp/internal/modules/category/dto"
	"anoa.com/blogapp/internal/modules/category/repository"
	"anoa.com/blogapp/internal/testutil"
	"anoa.com/blogapp/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListCategories(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	ctx := context.Background()

	for _, name := range []string{"Travel", "Go & Rust", "Books"} {
		_, err := svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: name})
		require.NoError(t, err)
	}

	_, err := svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "travel"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	categories, err := svc.GetAllCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Books", categories[0].Name)
	assert.Equal(t, "Go & Rust", categories[1].Name)
	assert.Equal(t, "Travel", categories[2].Name)
}

func TestDeleteCategoryUnlinksPosts(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "News"})
	require.NoError(t, err)
	user := testutil.CreateUser(t, db, "writer")
	post := testutil.CreatePost(t, db, user.ID, "Hello world", entity.Category{ID: created.CategoryID, Name: "News"})

	require.NoError(t, svc.DeleteCategory(ctx, int64(created.CategoryID)))

	var links int64
	require.NoError(t, db.Table("post_categories").Where("post_id = ?", post.ID).Count(&links).Error)
	assert.Zero(t, links)

	var posts int64
	require.NoError(t, db.Model(&entity.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(1), posts)

	assert.ErrorIs(t, svc.DeleteCategory(ctx, int64(created.CategoryID)), apperror.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, 0), apperror.ErrBadRequest)
}
