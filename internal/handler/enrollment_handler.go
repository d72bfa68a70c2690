package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"school/internal/middleware"
	"school/internal/repository"
	"school/internal/usecase"
)

// 受講権まわりのHTTP。管理系はRequireAdminの内側
type EnrollmentHandler struct {
	entitlementUC *usecase.EntitlementUsecase
	guard         *usecase.AccessGuard
	enrollRepo    repository.EnrollmentRepository
	courseRepo    repository.CourseRepository
	reviewRepo    repository.ReviewRequestRepository
	clock         usecase.Clock
}

func NewEnrollmentHandler(
	entitlementUC *usecase.EntitlementUsecase,
	guard *usecase.AccessGuard,
	enrollRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	reviewRepo repository.ReviewRequestRepository,
	clock usecase.Clock,
) *EnrollmentHandler {
	return &EnrollmentHandler{
		entitlementUC: entitlementUC,
		guard:         guard,
		enrollRepo:    enrollRepo,
		courseRepo:    courseRepo,
		reviewRepo:    reviewRepo,
		clock:         clock,
	}
}

type createEnrollmentRequest struct {
	StudentID string     `json:"student_id"`
	CourseID  string     `json:"course_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type reviewSubmissionRequest struct {
	VideoURL         string `json:"video_url"`
	OriginalFilename string `json:"original_filename"`
}

func (h *EnrollmentHandler) RegisterRoutes(e *echo.Echo, verifier middleware.AccessTokenVerifier) {
	g := e.Group("")
	g.Use(middleware.AuthJWT(verifier))

	g.GET("/me/enrollments", h.myEnrollments)
	g.GET("/courses/:id/access", h.courseAccess)
	g.POST("/courses/:id/review", h.submitReview)

	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(verifier))
	admin.Use(middleware.RequireAdmin())

	admin.POST("/enrollments", h.createEnrollment)
	admin.DELETE("/enrollments/:id", h.revokeEnrollment)
	admin.GET("/courses/:id/reviews", h.courseReviews)
}

func (h *EnrollmentHandler) myEnrollments(c echo.Context) error {
	ident, ok := getIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	views, err := h.entitlementUC.ListForStudent(c.Request().Context(), ident.PersonID, h.clock.Now())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, views)
}

// 今このコースを見られるかだけを返す。UIの出し分け用
func (h *EnrollmentHandler) courseAccess(c echo.Context) error {
	ident, ok := getIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	entitled, err := h.entitlementUC.IsEntitled(c.Request().Context(), ident.PersonID, c.Param("id"), h.clock.Now())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"entitled": entitled})
}

// レビュー提出＝延長。期限切れでもBLOCKEDでもここから復活できる
func (h *EnrollmentHandler) submitReview(c echo.Context) error {
	ident, ok := getIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req reviewSubmissionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.VideoURL == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "video_url is required"})
	}

	err := h.entitlementUC.ExtendForReview(c.Request().Context(), ident.PersonID, c.Param("id"),
		req.VideoURL, req.OriginalFilename, h.clock.Now())
	if err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *EnrollmentHandler) createEnrollment(c echo.Context) error {
	ident, ok := getIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req createEnrollmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.StudentID == "" || req.CourseID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "student_id and course_id are required"})
	}

	ctx := c.Request().Context()

	// デモ管理者は自分のコースにしか付与できない
	if err := h.authorizeCourseWrite(c, ident, req.CourseID); err != nil {
		return writeError(c, err)
	}

	enrollment, err := h.entitlementUC.CreateEnrollment(ctx, req.StudentID, req.CourseID, req.ExpiresAt)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, enrollment)
}

func (h *EnrollmentHandler) revokeEnrollment(c echo.Context) error {
	ident, ok := getIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	ctx := c.Request().Context()

	enrollment, err := h.enrollRepo.FindByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		}
		return writeError(c, err)
	}

	if err := h.authorizeCourseWrite(c, ident, enrollment.CourseID); err != nil {
		return writeError(c, err)
	}

	if err := h.entitlementUC.RevokeEnrollment(ctx, enrollment.ID); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *EnrollmentHandler) courseReviews(c echo.Context) error {
	reviews, err := h.reviewRepo.ListByCourse(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, reviews)
}

// コースへの書き込み権限。ADMINは常に可、デモ管理者は自分が作ったコースだけ
func (h *EnrollmentHandler) authorizeCourseWrite(c echo.Context, ident usecase.Identity, courseID string) error {
	course, err := h.courseRepo.FindByID(c.Request().Context(), courseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return usecase.ErrCourseNotFound
		}
		return err
	}

	return h.guard.AuthorizeOwnedWrite(ident, course.CreatedByID)
}
