package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/ratelimiter"
	pkgvalidator "anoa.com/blogapp/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorWritesMessage(t *testing.T) {
	c, w := newContext()
	Error(c, apperror.NotFound("Post not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", decode(t, w)["error"])
}

func TestErrorHidesInternalDetails(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("pq: relation does not exist"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w)["error"])
}

func TestBindError(t *testing.T) {
	require.NoError(t, pkgvalidator.Register())

	type input struct {
		Title string `json:"title" binding:"required"`
	}
	c, w := newContext()
	var in input
	BindError(c, binding.Validator.ValidateStruct(&in))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "validation failed", body["error"])
	assert.Equal(t, "Title is required.", body["errors"].(map[string]any)["title"])

	c, w = newContext()
	BindError(c, errors.New("unexpected EOF"))
	assert.Equal(t, "invalid request body", decode(t, w)["error"])
}

func TestGetUserID(t *testing.T) {
	c, _ := newContext()
	_, err := GetUserID(c)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	c.Set(UserIDKey, uint(7))
	id, err := GetUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestIDParam(t *testing.T) {
	c, _ := newContext()
	c.Params = gin.Params{{Key: "postId", Value: "15"}}
	id, err := IDParam(c, "postId")
	require.NoError(t, err)
	assert.EqualValues(t, 15, id)

	c.Params = gin.Params{{Key: "postId", Value: "-3"}}
	id, err = IDParam(c, "postId")
	require.NoError(t, err)
	assert.EqualValues(t, -3, id)

	c.Params = gin.Params{{Key: "postId", Value: "abc"}}
	_, err = IDParam(c, "postId")
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
	assert.EqualError(t, err, "postId must be a number")
}

func TestErrorSetsRetryAfter(t *testing.T) {
	c, w := newContext()
	Error(c, &ratelimiter.RateLimitError{Message: "slow down", RetryAfter: 12 * time.Second})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "12", w.Header().Get("Retry-After"))
	assert.Equal(t, "slow down", decode(t, w)["error"])
}
