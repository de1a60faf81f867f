package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/blogapp/internal/entity"
	categoryRepo "anoa.com/blogapp/internal/modules/category/repository"
	postRepo "anoa.com/blogapp/internal/modules/post/repository"
	post "anoa.com/blogapp/internal/modules/post/service"
	userRepo "anoa.com/blogapp/internal/modules/user/repository"
	"anoa.com/blogapp/internal/testutil"
	"anoa.com/blogapp/pkg/response"
	"anoa.com/blogapp/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *entity.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.Register())

	db := testutil.NewDB(t)
	writer := testutil.CreateUser(t, db, "writer")
	svc := post.NewPostService(postRepo.NewPostRepository(db), categoryRepo.NewCategoryRepository(db), userRepo.NewUserRepository(db), nil, nil, post.Options{})
	h := NewPostHandler(svc)

	asWriter := func(c *gin.Context) {
		c.Set(response.UserIDKey, writer.ID)
		c.Set("user", writer)
	}

	r := gin.New()
	g := r.Group("/api/post")
	g.GET("/GetPosts", h.GetPosts)
	g.GET("/GetPost/:postId", h.GetPostByID)
	g.GET("/GetUserPosts", h.GetUserPosts)
	g.GET("/CategoryFilter", h.CategoryFilter)
	g.GET("/Search", h.Search)
	g.POST("/AddPost", asWriter, h.CreatePost)
	g.PUT("/UpdatePost/:postId", asWriter, h.UpdatePost)
	g.DELETE("/deletePost/:postId", asWriter, h.DeletePost)
	return r, writer
}

func send(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostLifecycle(t *testing.T) {
	r, _ := newRouter(t)

	w := send(r, http.MethodPost, "/api/post/AddPost", `{"title":"Hi","content":"short"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Title must be at least 5 characters long.")

	w = send(r, http.MethodPost, "/api/post/AddPost", `{"title":"Hello world","content":"Some longer content"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		Message string `json:"message"`
		PostID  uint   `json:"postId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Post successfully added", created.Message)

	w = send(r, http.MethodGet, "/api/post/GetPosts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"commentCount":0`)
	assert.Contains(t, w.Body.String(), `"username":"writer"`)

	w = send(r, http.MethodGet, "/api/post/GetUserPosts?userId=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Hello world"`)

	w = send(r, http.MethodPut, "/api/post/UpdatePost/1", `{"title":"Hello again","content":"Edited content here"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"title":"Hello again"`)

	w = send(r, http.MethodDelete, "/api/post/deletePost/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, send(r, http.MethodGet, "/api/post/GetPost/1", "").Code)
}

func TestPostQueryErrors(t *testing.T) {
	r, _ := newRouter(t)

	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/api/post/GetPost/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/api/post/GetPost/0", "").Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/api/post/GetUserPosts", "").Code)
	assert.Equal(t, http.StatusNotFound, send(r, http.MethodGet, "/api/post/GetUserPosts?userId=5", "").Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/api/post/CategoryFilter?categoryId=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/api/post/GetPosts?limit=0&page=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/api/post/Search", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, send(r, http.MethodGet, "/api/post/Search?q=go", "").Code)
}
