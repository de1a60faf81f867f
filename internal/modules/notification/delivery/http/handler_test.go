package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/blogapp/internal/entity"
	notifRepo "anoa.com/blogapp/internal/modules/notification/repository"
	notifService "anoa.com/blogapp/internal/modules/notification/service"
	"anoa.com/blogapp/internal/testutil"
	"anoa.com/blogapp/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router  *gin.Engine
	service notifService.NotificationService
	author  *entity.User
	reader  *entity.User
	channel string
	numSub  func() int
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	mr, rdb := testutil.NewRedis(t)
	author := testutil.CreateUser(t, db, "author")
	reader := testutil.CreateUser(t, db, "reader")

	svc := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), rdb)
	h := NewNotificationHandler(svc, rdb, []string{"http://localhost:3000"})

	asAuthor := func(c *gin.Context) {
		c.Set(response.UserIDKey, author.ID)
	}

	r := gin.New()
	g := r.Group("/api/notifications", asAuthor)
	g.GET("", h.GetNotifications)
	g.GET("/unread-count", h.UnreadCount)
	g.PUT("/:id/read", h.MarkAsRead)
	g.PUT("/read-all", h.MarkAllAsRead)
	g.GET("/ws", h.HandleWebSocket)

	channel := notifService.Channel(author.ID)
	return &fixture{
		router:  r,
		service: svc,
		author:  author,
		reader:  reader,
		channel: channel,
		numSub:  func() int { return mr.PubSubNumSub(channel)[channel] },
	}
}

func (f *fixture) notify(t *testing.T, msg string) *entity.Notification {
	t.Helper()
	n := &entity.Notification{
		UserID:  f.author.ID,
		ActorID: f.reader.ID,
		Type:    entity.NotificationCommentPost,
		Message: msg,
	}
	require.NoError(t, f.service.CreateNotification(context.Background(), n))
	return n
}

func (f *fixture) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestNotificationEndpoints(t *testing.T) {
	f := setup(t)
	first := f.notify(t, "first")
	f.notify(t, "second")

	w := f.do(http.MethodGet, "/api/notifications?limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []entity.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Data, 2)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/notifications?limit=500").Code)

	w = f.do(http.MethodGet, "/api/notifications/unread-count")
	assert.JSONEq(t, `{"count":2}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/notifications/not-a-uuid/read").Code)

	w = f.do(http.MethodPut, "/api/notifications/"+first.ID.String()+"/read")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1}`, f.do(http.MethodGet, "/api/notifications/unread-count").Body.String())

	require.Equal(t, http.StatusOK, f.do(http.MethodPut, "/api/notifications/read-all").Code)
	assert.JSONEq(t, `{"count":0}`, f.do(http.MethodGet, "/api/notifications/unread-count").Body.String())
}

func TestWebSocketForwardsNotifications(t *testing.T) {
	f := setup(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.numSub() == 1 }, 2*time.Second, 10*time.Millisecond)

	sent := f.notify(t, "live")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got entity.Notification
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, "live", got.Message)
}

func TestWebSocketRejectsUnknownOrigin(t *testing.T) {
	f := setup(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
