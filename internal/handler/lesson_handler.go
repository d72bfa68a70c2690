package handler

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"school/internal/middleware"
	"school/internal/usecase"
)

// ファイル実体の取り出し口。実装はオブジェクトストレージ側
type FileObjectStore interface {
	Open(ctx context.Context, bucket string, objectName string) (io.ReadCloser, error)
}

// レッスン・ファイル閲覧のHTTP。可視判定は全部AccessGuardに任せる
type LessonHandler struct {
	guard *usecase.AccessGuard
	files FileObjectStore
	clock usecase.Clock
}

func NewLessonHandler(guard *usecase.AccessGuard, files FileObjectStore, clock usecase.Clock) *LessonHandler {
	return &LessonHandler{guard: guard, files: files, clock: clock}
}

// 認証必須。可視でなくてもレッスンの構造は返る（中身が抜ける）
func (h *LessonHandler) RegisterRoutes(e *echo.Echo, verifier middleware.AccessTokenVerifier) {
	g := e.Group("")
	g.Use(middleware.AuthJWT(verifier))

	g.GET("/lessons/:id", h.lessonDetail)
	g.GET("/modules/:id/lessons", h.moduleLessons)
	g.GET("/lessons/:id/files", h.lessonFiles)
	g.GET("/files/:id/download", h.downloadFile)
}

func (h *LessonHandler) lessonDetail(c echo.Context) error {
	ident, ok := getIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	view, err := h.guard.CanViewLessonContent(c.Request().Context(), ident, c.Param("id"), h.clock.Now())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, view)
}

func (h *LessonHandler) moduleLessons(c echo.Context) error {
	ident, ok := getIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	views, err := h.guard.ModuleLessons(c.Request().Context(), ident, c.Param("id"), h.clock.Now())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, views)
}

func (h *LessonHandler) lessonFiles(c echo.Context) error {
	ident, ok := getIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	files, err := h.guard.LessonFiles(c.Request().Context(), ident, c.Param("id"), h.clock.Now())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, files)
}

// バイナリ本体。ここだけは拒否＝403で、部分的な応答はない
func (h *LessonHandler) downloadFile(c echo.Context) error {
	ident, ok := getIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	ctx := c.Request().Context()

	file, err := h.guard.AuthorizeFileDownload(ctx, ident, c.Param("id"), h.clock.Now())
	if err != nil {
		return writeError(c, err)
	}

	body, err := h.files.Open(ctx, file.BucketName, file.ObjectName)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
	defer body.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename*=UTF-8''`+url.PathEscape(file.OriginalName))

	return c.Stream(http.StatusOK, contentType, body)
}
