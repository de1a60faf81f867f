package service

import (
	"encoding/json"
	"html"
	"strconv"
	"strings"

	"anoa.com/blogapp/internal/entity"
	"anoa.com/blogapp/pkg/logger"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
)

const (
	postsIndex       = "posts"
	reindexBatchSize = 500
)

type MeiliSearchService interface {
	IndexPost(post *entity.Post) error
	DeletePost(id uint) error
	// ReindexPosts re-adds every given post. Deleted posts are dropped at
	// query time, so stale documents are harmless.
	ReindexPosts(posts []*entity.Post) error
	// SearchPosts returns the ids of matching posts, best match first.
	SearchPosts(query string, limit int) ([]uint, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) MeiliSearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"userId", "categories"}
	if _, err := s.client.Index(postsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		logger.Log.WithError(err).Warn("failed to update posts filterable attributes")
	}

	sortable := []string{"createdAt"}
	if _, err := s.client.Index(postsIndex).UpdateSortableAttributes(&sortable); err != nil {
		logger.Log.WithError(err).Warn("failed to update posts sortable attributes")
	}

	logger.Log.Info("meilisearch indexes initialized")
}

type meiliPostDoc struct {
	ID         string   `json:"id"`
	PostID     uint     `json:"postId"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	UserID     uint     `json:"userId"`
	Username   string   `json:"username"`
	Categories []string `json:"categories"`
	CreatedAt  int64    `json:"createdAt"`
}

// cleanContentForIndex turns stored HTML into plain searchable text.
func (s *meiliSearchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	cleanText := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) newPostDoc(post *entity.Post) meiliPostDoc {
	categories := make([]string, 0, len(post.Categories))
	for _, c := range post.Categories {
		categories = append(categories, c.Name)
	}
	return meiliPostDoc{
		ID:         strconv.FormatUint(uint64(post.ID), 10),
		PostID:     post.ID,
		Title:      post.Title,
		Content:    s.cleanContentForIndex(post.Content),
		UserID:     post.UserID,
		Username:   post.User.Username,
		Categories: categories,
		CreatedAt:  post.CreatedAt.Unix(),
	}
}

func (s *meiliSearchService) IndexPost(post *entity.Post) error {
	doc := s.newPostDoc(post)
	task, err := s.client.Index(postsIndex).AddDocuments([]meiliPostDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{"post_id": post.ID, "task_uid": task.TaskUID}).Debug("post indexed")
	return nil
}

func (s *meiliSearchService) DeletePost(id uint) error {
	_, err := s.client.Index(postsIndex).DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

func (s *meiliSearchService) ReindexPosts(posts []*entity.Post) error {
	for start := 0; start < len(posts); start += reindexBatchSize {
		end := min(start+reindexBatchSize, len(posts))
		docs := make([]meiliPostDoc, 0, end-start)
		for _, p := range posts[start:end] {
			docs = append(docs, s.newPostDoc(p))
		}
		if _, err := s.client.Index(postsIndex).AddDocuments(docs, strPtr("id")); err != nil {
			return err
		}
	}
	logger.Log.WithField("documents", len(posts)).Info("posts reindexed")
	return nil
}

func (s *meiliSearchService) SearchPosts(query string, limit int) ([]uint, error) {
	raw, err := s.client.Index(postsIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"postId"},
	})
	if err != nil {
		return nil, err
	}

	var res struct {
		Hits []struct {
			PostID uint `json:"postId"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.PostID)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
