package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/blogapp/internal/entity"
	commentDto "anoa.com/blogapp/internal/modules/comment/dto"
	commentRepo "anoa.com/blogapp/internal/modules/comment/repository"
	notifService "anoa.com/blogapp/internal/modules/notification/service"
	postRepo "anoa.com/blogapp/internal/modules/post/repository"
	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/ratelimiter"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CommentService interface {
	GetComments(ctx context.Context, postID int64) ([]commentDto.CommentResponse, error)
	GetComment(ctx context.Context, commentID int64) (*commentDto.CommentResponse, error)
	GetMyComments(ctx context.Context, userID uint) ([]commentDto.CommentResponse, error)
	AddComment(ctx context.Context, actor *entity.User, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error)
	UpdateComment(ctx context.Context, actor *entity.User, commentID int64, req commentDto.UpdateCommentRequest) (*commentDto.CommentResponse, error)
	DeleteComment(ctx context.Context, actor *entity.User, commentID int64) error
}

const maxMessageLen = 255

type Options struct {
	CommentCooldown time.Duration
}

type commentService struct {
	commentRepo   commentRepo.CommentRepository
	postRepo      postRepo.PostRepository
	notifications notifService.NotificationService
	redisClient   *redis.Client
	opts          Options
	now           func() time.Time
}

// NewCommentService builds the service. notifications and redisClient may be
// nil.
func NewCommentService(commentRepo commentRepo.CommentRepository, postRepo postRepo.PostRepository, notifications notifService.NotificationService, redisClient *redis.Client, opts Options) CommentService {
	return &commentService{
		commentRepo:   commentRepo,
		postRepo:      postRepo,
		notifications: notifications,
		redisClient:   redisClient,
		opts:          opts,
		now:           time.Now,
	}
}

func (s *commentService) GetComments(ctx context.Context, postID int64) ([]commentDto.CommentResponse, error) {
	if postID <= 0 {
		return nil, apperror.BadRequest("Post ID must be greater than 0")
	}
	comments, err := s.commentRepo.FindByPostID(ctx, uint(postID))
	if err != nil {
		return nil, err
	}
	return commentDto.NewCommentResponses(comments), nil
}

func (s *commentService) GetComment(ctx context.Context, commentID int64) (*commentDto.CommentResponse, error) {
	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	res := commentDto.NewCommentResponse(comment)
	return &res, nil
}

func (s *commentService) GetMyComments(ctx context.Context, userID uint) ([]commentDto.CommentResponse, error) {
	comments, err := s.commentRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return commentDto.NewCommentResponses(comments), nil
}

func (s *commentService) AddComment(ctx context.Context, actor *entity.User, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error) {
	if req.PostID <= 0 {
		return nil, apperror.BadRequest("Post ID must be greater than 0")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.BadRequest("Content is required")
	}

	release, err := ratelimiter.Acquire(ctx, s.redisClient, actor.ID, "comment", s.opts.CommentCooldown)
	if err != nil {
		return nil, err
	}
	created := false
	defer func() {
		if !created {
			release()
		}
	}()

	post, err := s.postRepo.FindByID(ctx, uint(req.PostID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Post not found")
		}
		return nil, err
	}

	comment := &entity.Comment{
		Content: content,
		PostID:  post.ID,
		UserID:  actor.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	created = true
	comment.User = *actor

	logger.Log.WithFields(logrus.Fields{
		"comment_id": comment.ID,
		"post_id":    post.ID,
		"user_id":    actor.ID,
	}).Info("comment added")

	if post.UserID != actor.ID {
		s.notifyAuthor(ctx, post, comment, actor)
	}

	res := commentDto.NewCommentResponse(comment)
	return &res, nil
}

// UpdateComment is restricted to the comment's author.
func (s *commentService) UpdateComment(ctx context.Context, actor *entity.User, commentID int64, req commentDto.UpdateCommentRequest) (*commentDto.CommentResponse, error) {
	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if actor == nil || comment.UserID != actor.ID {
		return nil, apperror.Forbidden("You can only edit your own comments")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.BadRequest("Content is required")
	}

	now := s.now()
	comment.Content = content
	comment.UpdatedAt = &now
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	res := commentDto.NewCommentResponse(comment)
	return &res, nil
}

func (s *commentService) DeleteComment(ctx context.Context, actor *entity.User, commentID int64) error {
	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return err
	}
	if actor == nil || (comment.UserID != actor.ID && !actor.HasRole(entity.RoleAdmin)) {
		return apperror.Forbidden("You can only delete your own comments")
	}

	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{"comment_id": comment.ID, "actor_id": actor.ID}).Info("comment deleted")
	return nil
}

func (s *commentService) findComment(ctx context.Context, commentID int64) (*entity.Comment, error) {
	if commentID <= 0 {
		return nil, apperror.BadRequest("Comment ID must be greater than 0")
	}
	comment, err := s.commentRepo.FindByID(ctx, uint(commentID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Comment not found")
		}
		return nil, err
	}
	return comment, nil
}

func (s *commentService) notifyAuthor(ctx context.Context, post *entity.Post, comment *entity.Comment, actor *entity.User) {
	if s.notifications == nil {
		return
	}

	commentID := comment.ID
	notification := &entity.Notification{
		UserID:    post.UserID,
		ActorID:   actor.ID,
		PostID:    post.ID,
		CommentID: &commentID,
		Type:      entity.NotificationCommentPost,
		Message:   truncate(fmt.Sprintf("%s commented on your post '%s'", actor.Username, post.Title), maxMessageLen),
	}
	if err := s.notifications.CreateNotification(context.WithoutCancel(ctx), notification); err != nil {
		logger.Log.WithError(err).WithField("post_id", post.ID).Warn("failed to create comment notification")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
