package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"anoa.com/blogapp/internal/entity"
	notifRepo "anoa.com/blogapp/internal/modules/notification/repository"
	"anoa.com/blogapp/internal/testutil"
	"anoa.com/blogapp/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNotificationPublishes(t *testing.T) {
	db := testutil.NewDB(t)
	_, rdb := testutil.NewRedis(t)
	author := testutil.CreateUser(t, db, "author")
	reader := testutil.CreateUser(t, db, "reader")
	post := testutil.CreatePost(t, db, author.ID, "Hello world")

	svc := NewNotificationService(notifRepo.NewNotificationRepository(db), rdb)
	ctx := context.Background()

	pubsub := rdb.Subscribe(ctx, Channel(author.ID))
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	n := &entity.Notification{
		UserID:  author.ID,
		ActorID: reader.ID,
		PostID:  post.ID,
		Type:    entity.NotificationCommentPost,
		Message: "reader commented on your post",
	}
	require.NoError(t, svc.CreateNotification(ctx, n))
	assert.NotEqual(t, uuid.Nil, n.ID)

	select {
	case msg := <-pubsub.Channel():
		var got entity.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, "reader commented on your post", got.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not published")
	}

	count, err := svc.UnreadCount(ctx, author.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCreateNotificationWithoutRedis(t *testing.T) {
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "author")
	reader := testutil.CreateUser(t, db, "reader")

	svc := NewNotificationService(notifRepo.NewNotificationRepository(db), nil)
	err := svc.CreateNotification(context.Background(), &entity.Notification{
		UserID: author.ID, ActorID: reader.ID, Type: entity.NotificationCommentPost, Message: "hi",
	})
	require.NoError(t, err)
}

func TestMarkAsReadOnlyForRecipient(t *testing.T) {
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "author")
	reader := testutil.CreateUser(t, db, "reader")
	svc := NewNotificationService(notifRepo.NewNotificationRepository(db), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.CreateNotification(ctx, &entity.Notification{
			UserID: author.ID, ActorID: reader.ID, Type: entity.NotificationCommentPost, Message: "new comment",
		}))
	}

	list, err := svc.GetNotifications(ctx, author.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.NotNil(t, list[0].Actor)
	assert.Equal(t, "reader", list[0].Actor.Username)

	err = svc.MarkAsRead(ctx, reader.ID, list[0].ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = svc.MarkAsRead(ctx, author.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, svc.MarkAsRead(ctx, author.ID, list[0].ID))
	count, err := svc.UnreadCount(ctx, author.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, svc.MarkAllAsRead(ctx, author.ID))
	count, err = svc.UnreadCount(ctx, author.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	page, err := svc.GetNotifications(ctx, author.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestPurgeReadKeepsUnreadAndRecent(t *testing.T) {
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "author")
	reader := testutil.CreateUser(t, db, "reader")
	svc := NewNotificationService(notifRepo.NewNotificationRepository(db), nil)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	seed := []entity.Notification{
		{UserID: author.ID, ActorID: reader.ID, Type: entity.NotificationCommentPost, Message: "old read", IsRead: true, CreatedAt: old},
		{UserID: author.ID, ActorID: reader.ID, Type: entity.NotificationCommentPost, Message: "old unread", CreatedAt: old},
		{UserID: author.ID, ActorID: reader.ID, Type: entity.NotificationCommentPost, Message: "fresh read", IsRead: true},
	}
	for i := range seed {
		require.NoError(t, svc.CreateNotification(ctx, &seed[i]))
	}

	removed, err := svc.PurgeRead(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	list, err := svc.GetNotifications(ctx, author.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, n := range list {
		assert.NotEqual(t, "old read", n.Message)
	}
}
