package post

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/blogapp/internal/entity"
	categoryRepo "anoa.com/blogapp/internal/modules/category/repository"
	postDto "anoa.com/blogapp/internal/modules/post/dto"
	postRepo "anoa.com/blogapp/internal/modules/post/repository"
	userRepo "anoa.com/blogapp/internal/modules/user/repository"
	"anoa.com/blogapp/internal/testutil"
	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/dto"
	"anoa.com/blogapp/pkg/ratelimiter"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeIndex struct {
	indexed []uint
	deleted []uint
	hits    []uint
	err     error
}

func (f *fakeIndex) IndexPost(post *entity.Post) error {
	f.indexed = append(f.indexed, post.ID)
	return f.err
}

func (f *fakeIndex) DeletePost(id uint) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeIndex) ReindexPosts(posts []*entity.Post) error {
	for _, p := range posts {
		f.indexed = append(f.indexed, p.ID)
	}
	return f.err
}

func (f *fakeIndex) SearchPosts(string, int) ([]uint, error) {
	return f.hits, f.err
}

type fixture struct {
	db    *gorm.DB
	svc   PostService
	index *fakeIndex
}

func newFixture(t *testing.T, rdb *redis.Client) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	index := &fakeIndex{}
	svc := NewPostService(
		postRepo.NewPostRepository(db),
		categoryRepo.NewCategoryRepository(db),
		userRepo.NewUserRepository(db),
		index,
		rdb,
		Options{PostCooldown: time.Minute},
	)
	return &fixture{db: db, svc: svc, index: index}
}

func (f *fixture) category(t *testing.T, name string) entity.Category {
	t.Helper()
	c := entity.Category{Name: name}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "writer")
	golang := f.category(t, "Go")

	res, err := f.svc.CreatePost(ctx, user.ID, postDto.CreatePostRequest{
		Title:       "  Hello Go  ",
		Content:     `<p onclick="x()">Some content</p><script>alert(1)</script>`,
		CategoryIDs: []uint{golang.ID, golang.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Post successfully added", res.Message)
	assert.Equal(t, []uint{res.PostID}, f.index.indexed)

	got, err := f.svc.GetPost(ctx, int64(res.PostID))
	require.NoError(t, err)
	assert.Equal(t, "Hello Go", got.Title)
	assert.Equal(t, "<p>Some content</p>", got.Content)
	assert.Equal(t, "writer", got.User.Username)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "Go", got.Categories[0].Name)
	assert.Nil(t, got.UpdateDate)
}

func TestCreatePostRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t, nil)
	user := testutil.CreateUser(t, f.db, "writer")

	_, err := f.svc.CreatePost(context.Background(), user.ID, postDto.CreatePostRequest{
		Title: "Hello Go", Content: "Some content here", CategoryIDs: []uint{42},
	})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestCreatePostRejectsContentThatSanitizesToNothing(t *testing.T) {
	f := newFixture(t, nil)
	user := testutil.CreateUser(t, f.db, "writer")

	_, err := f.svc.CreatePost(context.Background(), user.ID, postDto.CreatePostRequest{
		Title: "Hello Go", Content: "<script>alert('hi')</script>",
	})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestPostContentLengthCountsCleanedHTML(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "writer")
	post := testutil.CreatePost(t, f.db, user.ID, "Original title")

	short := "<script>alert('padding past ten')</script>a"

	_, err := f.svc.CreatePost(ctx, user.ID, postDto.CreatePostRequest{Title: "Hello Go", Content: short})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
	assert.EqualError(t, err, "Content must be at least 10 characters after HTML cleanup")
	assert.Empty(t, f.index.indexed)

	_, err = f.svc.UpdatePost(ctx, user, int64(post.ID), postDto.UpdatePostRequest{Title: "Edited title", Content: short})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	var stored entity.Post
	require.NoError(t, f.db.First(&stored, post.ID).Error)
	assert.Equal(t, "Original title", stored.Title)
}

func TestCreatePostIsRateLimited(t *testing.T) {
	_, rdb := testutil.NewRedis(t)
	f := newFixture(t, rdb)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "writer")

	_, err := f.svc.CreatePost(ctx, user.ID, postDto.CreatePostRequest{
		Title: "Hello Go", Content: "Some content", CategoryIDs: []uint{99},
	})
	require.ErrorIs(t, err, apperror.ErrBadRequest)

	// the failed attempt must not consume the cooldown
	_, err = f.svc.CreatePost(ctx, user.ID, postDto.CreatePostRequest{Title: "Hello Go", Content: "Some content"})
	require.NoError(t, err)

	_, err = f.svc.CreatePost(ctx, user.ID, postDto.CreatePostRequest{Title: "Hello again", Content: "More content"})
	var rateErr *ratelimiter.RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
	assert.Greater(t, rateErr.RetryAfter, time.Duration(0))
}

func TestGetPosts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "writer")

	first := testutil.CreatePost(t, f.db, user.ID, "First post")
	second := testutil.CreatePost(t, f.db, user.ID, "Second post")
	require.NoError(t, f.db.Model(first).Update("created_at", time.Now().Add(-time.Hour)).Error)
	require.NoError(t, f.db.Create(&entity.Comment{Content: "nice", PostID: first.ID, UserID: user.ID}).Error)
	require.NoError(t, f.db.Create(&entity.Comment{Content: "again", PostID: first.ID, UserID: user.ID}).Error)

	posts, err := f.svc.GetPosts(ctx, dto.PageFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].PostID)
	assert.Equal(t, int64(0), posts[0].CommentCount)
	assert.Equal(t, int64(2), posts[1].CommentCount)

	page, err := f.svc.GetPosts(ctx, dto.PageFilter{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].PostID)
}

func TestGetPostErrors(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.GetPost(context.Background(), 0)
	assert.EqualError(t, err, "Post ID must be greater than 0")

	_, err = f.svc.GetPost(context.Background(), 7)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetUserPosts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	writer := testutil.CreateUser(t, f.db, "writer")
	other := testutil.CreateUser(t, f.db, "other")
	testutil.CreatePost(t, f.db, writer.ID, "Writer post")
	testutil.CreatePost(t, f.db, other.ID, "Other post")

	posts, err := f.svc.GetUserPosts(ctx, int64(writer.ID))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Writer post", posts[0].Title)

	_, err = f.svc.GetUserPosts(ctx, -1)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
	_, err = f.svc.GetUserPosts(ctx, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetPostsByCategory(t *testing.T) {
	f := newFixture(t, nil)
	user := testutil.CreateUser(t, f.db, "writer")
	golang := f.category(t, "Go")
	rust := f.category(t, "Rust")
	testutil.CreatePost(t, f.db, user.ID, "Go post", golang)
	testutil.CreatePost(t, f.db, user.ID, "Both post", golang, rust)
	testutil.CreatePost(t, f.db, user.ID, "Plain post")

	posts, err := f.svc.GetPostsByCategory(context.Background(), int64(rust.ID))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Both post", posts[0].Title)
	assert.Len(t, posts[0].Categories, 2)

	posts, err = f.svc.GetPostsByCategory(context.Background(), int64(golang.ID))
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestUpdatePost(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "writer")
	stranger := testutil.CreateUser(t, f.db, "stranger")
	admin := testutil.CreateUser(t, f.db, "root", entity.RoleAdmin)
	golang := f.category(t, "Go")
	post := testutil.CreatePost(t, f.db, owner.ID, "Original title", golang)

	req := postDto.UpdatePostRequest{Title: "Edited title", Content: "Edited content"}

	_, err := f.svc.UpdatePost(ctx, stranger, int64(post.ID), req)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	res, err := f.svc.UpdatePost(ctx, owner, int64(post.ID), req)
	require.NoError(t, err)
	assert.Equal(t, "Edited title", res.Title)
	assert.Empty(t, res.Categories)
	require.NotNil(t, res.UpdateDate)

	req.CategoryIDs = []uint{golang.ID}
	res, err = f.svc.UpdatePost(ctx, admin, int64(post.ID), req)
	require.NoError(t, err)
	assert.Len(t, res.Categories, 1)
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "writer")
	stranger := testutil.CreateUser(t, f.db, "stranger")
	golang := f.category(t, "Go")
	post := testutil.CreatePost(t, f.db, owner.ID, "Doomed post", golang)
	require.NoError(t, f.db.Create(&entity.Comment{Content: "bye", PostID: post.ID, UserID: stranger.ID}).Error)

	assert.ErrorIs(t, f.svc.DeletePost(ctx, stranger, int64(post.ID)), apperror.ErrForbidden)
	require.NoError(t, f.svc.DeletePost(ctx, owner, int64(post.ID)))
	assert.Equal(t, []uint{post.ID}, f.index.deleted)

	var comments, links, categories int64
	require.NoError(t, f.db.Model(&entity.Comment{}).Count(&comments).Error)
	require.NoError(t, f.db.Table("post_categories").Count(&links).Error)
	require.NoError(t, f.db.Model(&entity.Category{}).Count(&categories).Error)
	assert.Zero(t, comments)
	assert.Zero(t, links)
	assert.Equal(t, int64(1), categories)

	assert.ErrorIs(t, f.svc.DeletePost(ctx, owner, int64(post.ID)), apperror.ErrNotFound)
}

func TestSearchPosts(t *testing.T) {
	f := newFixture(t, nil)
	user := testutil.CreateUser(t, f.db, "writer")
	a := testutil.CreatePost(t, f.db, user.ID, "Alpha post")
	b := testutil.CreatePost(t, f.db, user.ID, "Beta post")
	f.index.hits = []uint{b.ID, 404, a.ID}

	posts, err := f.svc.SearchPosts(context.Background(), postDto.SearchQuery{Q: "post"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, b.ID, posts[0].PostID)
	assert.Equal(t, a.ID, posts[1].PostID)

	f.index.err = errors.New("meili down")
	_, err = f.svc.SearchPosts(context.Background(), postDto.SearchQuery{Q: "post"})
	assert.ErrorIs(t, err, apperror.ErrServiceUnavailable)
}

func TestSearchPostsWithoutSearchBackend(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostService(postRepo.NewPostRepository(db), categoryRepo.NewCategoryRepository(db), userRepo.NewUserRepository(db), nil, nil, Options{})

	_, err := svc.SearchPosts(context.Background(), postDto.SearchQuery{Q: "go"})
	assert.ErrorIs(t, err, apperror.ErrServiceUnavailable)
}
