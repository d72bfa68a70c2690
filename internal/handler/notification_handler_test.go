package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school/internal/domain/model"
	"school/internal/middleware"
	repo "school/internal/repository"
	"school/internal/usecase"
)

type fakeNotificationRepo struct {
	notifications map[string]model.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.notifications[n.ID] = *n
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(_ context.Context, recipientID string) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id string, recipientID string) error {
	n, ok := r.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return repo.ErrNotificationNotFound
	}
	n.IsRead = true
	r.notifications[id] = n
	return nil
}

func newNotificationCtx(t *testing.T, ident usecase.Identity, notificationID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/me/notifications/"+notificationID+"/read", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(notificationID)
	c.Set(middleware.CtxIdentityKey, ident)
	return c, rec
}

func TestNotificationHandler_MarkRead_OwnNotification(t *testing.T) {
	store := &fakeNotificationRepo{notifications: map[string]model.Notification{
		"n-1": {ID: "n-1", RecipientID: "student-1", Title: "Доступ продовжено"},
	}}
	h := NewNotificationHandler(store)

	c, rec := newNotificationCtx(t, usecase.Identity{PersonID: "student-1", Role: model.RoleUser}, "n-1")
	require.NoError(t, h.markRead(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, store.notifications["n-1"].IsRead)
}

func TestNotificationHandler_MarkRead_SomeoneElsesNotification(t *testing.T) {
	store := &fakeNotificationRepo{notifications: map[string]model.Notification{
		"n-1": {ID: "n-1", RecipientID: "student-1", Title: "Доступ продовжено"},
	}}
	h := NewNotificationHandler(store)

	// 他人の通知は404。既読にもならない
	c, rec := newNotificationCtx(t, usecase.Identity{PersonID: "student-2", Role: model.RoleUser}, "n-1")
	require.NoError(t, h.markRead(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, store.notifications["n-1"].IsRead)
}

func TestNotificationHandler_MarkRead_UnknownNotification(t *testing.T) {
	store := &fakeNotificationRepo{notifications: map[string]model.Notification{}}
	h := NewNotificationHandler(store)

	c, rec := newNotificationCtx(t, usecase.Identity{PersonID: "student-1", Role: model.RoleUser}, "no-such")
	require.NoError(t, h.markRead(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
