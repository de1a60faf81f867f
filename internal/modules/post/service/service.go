package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"anoa.com/blogapp/internal/entity"
	categoryRepo "anoa.com/blogapp/internal/modules/category/repository"
	postDto "anoa.com/blogapp/internal/modules/post/dto"
	postRepo "anoa.com/blogapp/internal/modules/post/repository"
	search "anoa.com/blogapp/internal/modules/search/service"
	userRepo "anoa.com/blogapp/internal/modules/user/repository"
	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/dto"
	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/ratelimiter"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultSearchLimit = 20
	minContentLen      = 10
)

type PostService interface {
	GetPosts(ctx context.Context, filter dto.PageFilter) ([]postDto.PostResponse, error)
	GetPost(ctx context.Context, postID int64) (*postDto.PostResponse, error)
	GetUserPosts(ctx context.Context, userID int64) ([]postDto.PostResponse, error)
	GetPostsByCategory(ctx context.Context, categoryID int64) ([]postDto.PostResponse, error)
	SearchPosts(ctx context.Context, query postDto.SearchQuery) ([]postDto.PostResponse, error)
	CreatePost(ctx context.Context, userID uint, req postDto.CreatePostRequest) (*postDto.CreatePostResponse, error)
	UpdatePost(ctx context.Context, actor *entity.User, postID int64, req postDto.UpdatePostRequest) (*postDto.PostResponse, error)
	DeletePost(ctx context.Context, actor *entity.User, postID int64) error
}

type Options struct {
	// PostCooldown is the minimum time between two posts of one user.
	PostCooldown time.Duration
}

type postService struct {
	postRepo     postRepo.PostRepository
	categoryRepo categoryRepo.CategoryRepository
	userRepo     userRepo.UserRepository
	meili        search.MeiliSearchService
	redisClient  *redis.Client
	sanitizer    *bluemonday.Policy
	opts         Options
	now          func() time.Time
}

// NewPostService builds the service. meili and redisClient may be nil, which
// disables search and rate limiting.
func NewPostService(postRepo postRepo.PostRepository, categoryRepo categoryRepo.CategoryRepository, userRepo userRepo.UserRepository, meili search.MeiliSearchService, redisClient *redis.Client, opts Options) PostService {
	return &postService{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		meili:        meili,
		redisClient:  redisClient,
		sanitizer:    bluemonday.UGCPolicy(),
		opts:         opts,
		now:          time.Now,
	}
}

func (s *postService) GetPosts(ctx context.Context, filter dto.PageFilter) ([]postDto.PostResponse, error) {
	posts, err := s.postRepo.FindAll(ctx, filter.Offset(), filter.Limit)
	if err != nil {
		return nil, err
	}
	return s.mapToResponses(ctx, posts)
}

func (s *postService) GetPost(ctx context.Context, postID int64) (*postDto.PostResponse, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	counts, err := s.postRepo.CountComments(ctx, []uint{post.ID})
	if err != nil {
		return nil, err
	}
	res := postDto.NewPostResponse(post, counts[post.ID])
	return &res, nil
}

func (s *postService) GetUserPosts(ctx context.Context, userID int64) ([]postDto.PostResponse, error) {
	if userID <= 0 {
		return nil, apperror.BadRequest("User ID must be greater than 0")
	}
	if _, err := s.userRepo.FindByID(ctx, uint(userID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, err
	}

	posts, err := s.postRepo.FindByUserID(ctx, uint(userID))
	if err != nil {
		return nil, err
	}
	return s.mapToResponses(ctx, posts)
}

func (s *postService) GetPostsByCategory(ctx context.Context, categoryID int64) ([]postDto.PostResponse, error) {
	if categoryID <= 0 {
		return nil, apperror.BadRequest("Category ID must be greater than 0")
	}
	posts, err := s.postRepo.FindByCategoryID(ctx, uint(categoryID))
	if err != nil {
		return nil, err
	}
	return s.mapToResponses(ctx, posts)
}

func (s *postService) SearchPosts(ctx context.Context, query postDto.SearchQuery) ([]postDto.PostResponse, error) {
	if s.meili == nil {
		return nil, apperror.New(apperror.ErrServiceUnavailable, "search is not configured")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	ids, err := s.meili.SearchPosts(strings.TrimSpace(query.Q), limit)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrServiceUnavailable, "search failed", err)
	}

	posts, err := s.postRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.mapToResponses(ctx, posts)
}

func (s *postService) CreatePost(ctx context.Context, userID uint, req postDto.CreatePostRequest) (*postDto.CreatePostResponse, error) {
	release, err := ratelimiter.Acquire(ctx, s.redisClient, userID, "post", s.opts.PostCooldown)
	if err != nil {
		return nil, err
	}
	created := false
	defer func() {
		if !created {
			release()
		}
	}()

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, err
	}

	title, content, err := s.cleanInput(req.Title, req.Content)
	if err != nil {
		return nil, err
	}
	categories, err := s.resolveCategories(ctx, req.CategoryIDs)
	if err != nil {
		return nil, err
	}

	post := &entity.Post{
		Title:      title,
		Content:    content,
		UserID:     userID,
		Categories: categories,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	created = true

	post.User = *user
	s.index(post)

	logger.Log.WithFields(logrus.Fields{"post_id": post.ID, "user_id": userID}).Info("post created")

	return &postDto.CreatePostResponse{
		Message: "Post successfully added",
		PostID:  post.ID,
	}, nil
}

func (s *postService) UpdatePost(ctx context.Context, actor *entity.User, postID int64, req postDto.UpdatePostRequest) (*postDto.PostResponse, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, post.UserID) {
		return nil, apperror.Forbidden("You can only edit your own posts")
	}

	title, content, err := s.cleanInput(req.Title, req.Content)
	if err != nil {
		return nil, err
	}
	categories, err := s.resolveCategories(ctx, req.CategoryIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post.Title = title
	post.Content = content
	post.UpdatedAt = &now
	if err := s.postRepo.Update(ctx, post, categories); err != nil {
		return nil, err
	}
	s.index(post)

	return s.GetPost(ctx, int64(post.ID))
}

func (s *postService) DeletePost(ctx context.Context, actor *entity.User, postID int64) error {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return err
	}
	if !canModify(actor, post.UserID) {
		return apperror.Forbidden("You can only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}

	if s.meili != nil {
		if err := s.meili.DeletePost(post.ID); err != nil {
			logger.Log.WithError(err).WithField("post_id", post.ID).Warn("failed to remove post from search index")
		}
	}

	logger.Log.WithFields(logrus.Fields{"post_id": post.ID, "actor_id": actor.ID}).Info("post deleted")
	return nil
}

func (s *postService) findPost(ctx context.Context, postID int64) (*entity.Post, error) {
	if postID <= 0 {
		return nil, apperror.BadRequest("Post ID must be greater than 0")
	}
	post, err := s.postRepo.FindByID(ctx, uint(postID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Post not found")
		}
		return nil, err
	}
	return post, nil
}

// cleanInput trims the title and strips unsafe HTML from the content. The
// length floor applies to what is stored, not to what was sent.
func (s *postService) cleanInput(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", apperror.BadRequest("Title is required")
	}
	content = strings.TrimSpace(s.sanitizer.Sanitize(content))
	if content == "" {
		return "", "", apperror.BadRequest("Content is required")
	}
	if utf8.RuneCountInString(content) < minContentLen {
		return "", "", apperror.BadRequest(fmt.Sprintf("Content must be at least %d characters after HTML cleanup", minContentLen))
	}
	return title, content, nil
}

func (s *postService) resolveCategories(ctx context.Context, ids []uint) ([]entity.Category, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	categories, err := s.categoryRepo.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(categories) != len(unique) {
		return nil, apperror.BadRequest("One or more categories do not exist")
	}
	return categories, nil
}

func (s *postService) index(post *entity.Post) {
	if s.meili == nil {
		return
	}
	if err := s.meili.IndexPost(post); err != nil {
		logger.Log.WithError(err).WithField("post_id", post.ID).Warn("failed to index post")
	}
}

func (s *postService) mapToResponses(ctx context.Context, posts []*entity.Post) ([]postDto.PostResponse, error) {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	counts, err := s.postRepo.CountComments(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := make([]postDto.PostResponse, 0, len(posts))
	for _, p := range posts {
		res = append(res, postDto.NewPostResponse(p, counts[p.ID]))
	}
	return res, nil
}

func canModify(actor *entity.User, ownerID uint) bool {
	return actor != nil && (actor.ID == ownerID || actor.HasRole(entity.RoleAdmin))
}
