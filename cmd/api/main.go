package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"school/internal/config"
	"school/internal/domain/model"
	"school/internal/handler"
	"school/internal/infra/db"
	"school/internal/infra/email"
	"school/internal/infra/notify"
	infraRepo "school/internal/infra/repository"
	"school/internal/infra/storage"
	"school/internal/scheduler"
	"school/internal/server"
	"school/internal/usecase"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは無ければ無いでよい（本番は環境変数直）
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("GO_ENV") == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect failed")
	}

	if err := gormDB.AutoMigrate(
		&model.Person{},
		&model.RefreshToken{},
		&model.Course{},
		&model.Module{},
		&model.Lesson{},
		&model.LessonFile{},
		&model.Enrollment{},
		&model.CourseReviewRequest{},
		&model.Notification{},
	); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	//Repository（GORM実装）生成
	personRepo := infraRepo.NewPersonRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	courseRepo := infraRepo.NewCourseRepository(gormDB)
	moduleRepo := infraRepo.NewModuleRepository(gormDB)
	lessonRepo := infraRepo.NewLessonRepository(gormDB)
	fileRepo := infraRepo.NewLessonFileRepository(gormDB)
	enrollRepo := infraRepo.NewEnrollmentRepository(gormDB)
	reviewRepo := infraRepo.NewReviewRequestRepository(gormDB)
	notifRepo := infraRepo.NewNotificationRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	notifier := notify.NewNotificationStore(notifRepo, idGen)
	mailer := email.NewSMTPMailer(cfg)
	fileStore := storage.NewFSStore(getenvDefault("FILE_STORAGE_ROOT", "./data/files"))

	//Usecase生成
	tokenUC := usecase.NewTokenUsecase(rtRepo, personRepo, txm, idGen, clock,
		cfg.JWTSecret, cfg.MagicLinkSecret,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.MagicTokenTTL)
	authUC := usecase.NewAuthUsecase(personRepo, tokenUC, notifier, mailer, idGen, clock, logger)
	entitlementUC := usecase.NewEntitlementUsecase(enrollRepo, courseRepo, personRepo, txm,
		notifier, mailer, idGen, logger)
	guard := usecase.NewAccessGuard(lessonRepo, moduleRepo, fileRepo, entitlementUC)

	//Handler生成
	authH := handler.NewAuthHandler(authUC, tokenUC, cfg.RefreshTokenTTL)
	lessonH := handler.NewLessonHandler(guard, fileStore, clock)
	enrollH := handler.NewEnrollmentHandler(entitlementUC, guard, enrollRepo, courseRepo, reviewRepo, clock)
	notifH := handler.NewNotificationHandler(notifRepo)

	srv := server.New(logger)
	srv.RegisterRoutes(tokenUC, authH, lessonH, enrollH, notifH)

	//期限sweepとリマインダーの定期実行
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := scheduler.NewSweeper(entitlementUC, tokenUC, clock, logger)
	go sweeper.Run(ctx)

	go func() {
		if err := srv.Start(":" + cfg.Port); err != nil {
			logger.Fatal().Err(err).Msg("server start failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
}

func getenvDefault(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
