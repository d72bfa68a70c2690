package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"school/internal/middleware"
	"school/internal/usecase"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// usecaseのsentinelエラーをHTTPステータスに写す
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidEmailFormat),
		errors.Is(err, usecase.ErrPasswordTooShort):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation error"})

	case errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrTokenNotFound),
		errors.Is(err, usecase.ErrTokenExpired),
		errors.Is(err, usecase.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})

	case errors.Is(err, usecase.ErrAccessDenied):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})

	case errors.Is(err, usecase.ErrLessonNotFound),
		errors.Is(err, usecase.ErrEnrollmentNotFound),
		errors.Is(err, usecase.ErrCourseNotFound),
		errors.Is(err, usecase.ErrPersonNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})

	case errors.Is(err, usecase.ErrEmailAlreadyExists),
		errors.Is(err, usecase.ErrAlreadyEnrolled):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "conflict"})

	default:
		//500
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func getIdentity(c echo.Context) (usecase.Identity, bool) {
	return middleware.IdentityFrom(c)
}
