package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
)

func TestNotifySanitizesAndPublishes(t *testing.T) {
	engine := newTestEngine(t)
	student := engine.seedUser(t, models.UserRoleStudent)

	sub := engine.redis.Subscribe(context.Background(), "lms:notifications")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	response, err := engine.notifications.Notify(context.Background(), dto.NotificationCreateRequest{
		UserID:  student.ID,
		Title:   "<script>alert(1)</script>Payment received",
		Message: "<i>Thanks</i> for your purchase",
		Type:    string(models.NotificationTypePayment),
		Related: &dto.RelatedEntityPayload{Kind: string(models.RelatedPayment), ID: 12},
	})
	require.NoError(t, err)
	require.Equal(t, "Payment received", response.Title)
	require.Equal(t, "Thanks for your purchase", response.Message)
	require.Equal(t, uint(12), response.Related.ID)

	select {
	case msg := <-sub.Channel():
		var event notificationEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		require.Equal(t, response.ID, event.Notification.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not published")
	}
}

func TestNotifyRejectsInvalidPayloads(t *testing.T) {
	engine := newTestEngine(t)
	student := engine.seedUser(t, models.UserRoleStudent)

	_, err := engine.notifications.Notify(context.Background(), dto.NotificationCreateRequest{
		UserID:  student.ID,
		Title:   "Hello",
		Message: "World",
		Type:    string(models.NotificationTypeCourse),
		Related: &dto.RelatedEntityPayload{Kind: "lecture", ID: 1},
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.notifications.Notify(context.Background(), dto.NotificationCreateRequest{
		UserID:  student.ID,
		Title:   "<b></b>",
		Message: "World",
		Type:    string(models.NotificationTypeCourse),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestMarkReadScopesToOwner(t *testing.T) {
	engine := newTestEngine(t)
	student := engine.seedUser(t, models.UserRoleStudent)
	other := engine.seedUser(t, models.UserRoleStudent)

	created, err := engine.notifications.Notify(context.Background(), dto.NotificationCreateRequest{
		UserID: student.ID, Title: "Hi", Message: "There", Type: string(models.NotificationTypeSystem),
	})
	require.NoError(t, err)

	_, err = engine.notifications.MarkRead(context.Background(), created.ID, other.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	read, err := engine.notifications.MarkRead(context.Background(), created.ID, student.ID)
	require.NoError(t, err)
	require.True(t, read.Read)

	unread, err := engine.notifications.List(context.Background(), student.ID, true, 10, 0)
	require.NoError(t, err)
	require.Empty(t, unread)
}
