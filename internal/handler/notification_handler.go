package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"school/internal/middleware"
	"school/internal/repository"
)

// アプリ内通知の読み出し。書き込みはusecase側のsink経由のみ
type NotificationHandler struct {
	repo repository.NotificationRepository
}

func NewNotificationHandler(repo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

func (h *NotificationHandler) RegisterRoutes(e *echo.Echo, verifier middleware.AccessTokenVerifier) {
	g := e.Group("/me/notifications")
	g.Use(middleware.AuthJWT(verifier))

	g.GET("", h.list)
	g.POST("/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c echo.Context) error {
	ident, ok := getIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	notifications, err := h.repo.ListByRecipient(c.Request().Context(), ident.PersonID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) markRead(c echo.Context) error {
	ident, ok := getIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	// 自分宛の通知しか既読にできない
	if err := h.repo.MarkRead(c.Request().Context(), c.Param("id"), ident.PersonID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		}
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
