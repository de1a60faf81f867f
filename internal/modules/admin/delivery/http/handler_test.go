package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/blogapp/internal/entity"
	adminService "anoa.com/blogapp/internal/modules/admin/service"
	"anoa.com/blogapp/internal/modules/user/repository"
	"anoa.com/blogapp/internal/testutil"
	"anoa.com/blogapp/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, actorID uint) (*gin.Engine, *entity.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "root", entity.RoleAdmin)
	jane := testutil.CreateUser(t, db, "jane")

	h := NewAdminHandler(adminService.NewAdminService(repository.NewUserRepository(db)))
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(response.UserIDKey, actorID) })
	r.GET("/users", h.GetAllUsers)
	r.PUT("/users/:id/roles", h.UpdateUserRoles)
	r.PUT("/users/:id/status", h.SetUserStatus)
	return r, jane
}

func put(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetAllUsersHandler(t *testing.T) {
	r, _ := newRouter(t, 1)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userName":"jane"`)
}

func TestUpdateUserRolesHandler(t *testing.T) {
	r, _ := newRouter(t, 1)

	assert.Equal(t, http.StatusBadRequest, put(r, "/users/abc/roles", `{"roles":["User"]}`).Code)
	assert.Equal(t, http.StatusBadRequest, put(r, "/users/2/roles", `{"roles":[]}`).Code)
	assert.Equal(t, http.StatusNotFound, put(r, "/users/42/roles", `{"roles":["User"]}`).Code)

	w := put(r, "/users/2/roles", `{"roles":["Admin"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"roles":["Admin"]`)
}

func TestSetUserStatusHandler(t *testing.T) {
	r, _ := newRouter(t, 1)

	assert.Equal(t, http.StatusBadRequest, put(r, "/users/2/status", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, put(r, "/users/1/status", `{"isActive":false}`).Code)

	w := put(r, "/users/2/status", `{"isActive":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isActive":false`)
}
