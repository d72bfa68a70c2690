package server

import (
	"school/internal/handler"
	"school/internal/middleware"
)

// RegisterRoutesは全ハンドラのルートをまとめて登録する
func (s *Server) RegisterRoutes(
	verifier middleware.AccessTokenVerifier,
	authH *handler.AuthHandler,
	lessonH *handler.LessonHandler,
	enrollH *handler.EnrollmentHandler,
	notifH *handler.NotificationHandler,
) {
	authH.RegisterRoutes(s.echo)
	lessonH.RegisterRoutes(s.echo, verifier)
	enrollH.RegisterRoutes(s.echo, verifier)
	notifH.RegisterRoutes(s.echo, verifier)
}
