package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"school/internal/domain/model"
	"school/internal/repository"
)

var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// 同じ(学生, コース)への二重付与
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrCourseNotFound  = errors.New("course not found")
	ErrPersonNotFound  = errors.New("person not found")
)

// レビューによる延長日数
const reviewExtensionDays = 31

// 期限リマインダーを送るのは実効期限のちょうど30日前
const expiryReminderLeadDays = 30

// アプリ内通知の送り先。失敗してもビジネス処理は巻き戻さない
type NotificationSink interface {
	Notify(ctx context.Context, recipientID string, title string, message string, kind model.NotificationType) error
}

// メール送信の約束。同じくfire-and-forget
type EmailSink interface {
	SendWelcome(ctx context.Context, address string, name string) error
	SendMagicLink(ctx context.Context, address string, link string) error
	SendAccessGranted(ctx context.Context, address string, name string, courseName string) error
	SendAccessExtended(ctx context.Context, address string, name string, courseName string, expiresOn time.Time) error
	SendExpiryReminder(ctx context.Context, address string, name string, courseName string, expiresOn time.Time) error
}

// EntitlementUsecaseは「この学生は今このコースを見てよいか」を決める。
// 判断は毎回ストアを読み直す（管理者の剥奪やsweepをすぐ反映するため）
type EntitlementUsecase struct {
	enrollRepo repository.EnrollmentRepository
	courseRepo repository.CourseRepository
	personRepo repository.PersonRepository
	txm        repository.TransactionManager
	notifier   NotificationSink
	mailer     EmailSink
	idGen      IDGenerator
	logger     zerolog.Logger
}

func NewEntitlementUsecase(
	enrollRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	personRepo repository.PersonRepository,
	txm repository.TransactionManager,
	notifier NotificationSink,
	mailer EmailSink,
	idGen IDGenerator,
	logger zerolog.Logger,
) *EntitlementUsecase {
	return &EntitlementUsecase{
		enrollRepo: enrollRepo,
		courseRepo: courseRepo,
		personRepo: personRepo,
		txm:        txm,
		notifier:   notifier,
		mailer:     mailer,
		idGen:      idGen,
		logger:     logger,
	}
}

// IsEntitledは受講権の有無だけを見る純粋な述語。
// 管理者の無条件許可はAccessGuard側の仕事（ここには入れない）
func (u *EntitlementUsecase) IsEntitled(ctx context.Context, studentID string, courseID string, now time.Time) (bool, error) {
	enrollment, err := u.enrollRepo.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return false, nil
		}
		return false, storeErr(err)
	}

	if enrollment.Status == model.EnrollmentStatusBlocked {
		return false, nil
	}

	expiry, err := u.effectiveExpiry(ctx, enrollment)
	if err != nil {
		return false, err
	}
	if expiry == nil {
		// 期限なし。BLOCKEDか剥奪でしか失効しない
		return true, nil
	}

	return !now.After(*expiry), nil
}

// CreateEnrollmentは購入・付与で受講権を作る
func (u *EntitlementUsecase) CreateEnrollment(ctx context.Context, studentID string, courseID string, expiresAt *time.Time) (*model.Enrollment, error) {
	student, err := u.personRepo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return nil, ErrPersonNotFound
		}
		return nil, storeErr(err)
	}

	course, err := u.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, storeErr(err)
	}

	enrollment := &model.Enrollment{
		ID:        u.idGen.NewID(),
		StudentID: studentID,
		CourseID:  courseID,
		Status:    model.EnrollmentStatusActive,
		ExpiresAt: expiresAt,
	}

	if err := u.enrollRepo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrEnrollmentExists) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, storeErr(err)
	}

	//以降は通知だけなので失敗しても巻き戻さない
	u.fireAndForgetEmail("access granted", func(ctx context.Context) error {
		return u.mailer.SendAccessGranted(ctx, student.Email, student.FullName(), course.Name)
	})
	u.fireAndForgetNotify(ctx, studentID,
		"Покупка успішна!",
		"Ви успішно придбали курс \""+course.Name+"\". Бажаємо успішного навчання!",
		model.NotificationTypeCoursePurchased)
	u.broadcastToAdmins(ctx,
		"Нова покупка курсу",
		"Користувач "+student.FullName()+" ("+student.Email+") купив курс \""+course.Name+"\"",
		model.NotificationTypeCoursePurchased)

	return enrollment, nil
}

// RevokeEnrollmentは管理者による剥奪。行ごと消すので、次のIsEntitledから即falseになり、
// 同じ(学生, コース)への再付与はそのまま通る。
// BLOCKEDは期限切れsweep専用の状態で、剥奪はここを通らない
func (u *EntitlementUsecase) RevokeEnrollment(ctx context.Context, enrollmentID string) error {
	enrollment, err := u.enrollRepo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return ErrEnrollmentNotFound
		}
		return storeErr(err)
	}

	if err := u.enrollRepo.DeleteByID(ctx, enrollment.ID); err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return ErrEnrollmentNotFound
		}
		return storeErr(err)
	}

	u.logger.Info().
		Str("enrollment_id", enrollmentID).
		Str("student_id", enrollment.StudentID).
		Str("course_id", enrollment.CourseID).
		Msg("enrollment revoked")
	return nil
}

// 学生向け一覧の1行。実効期限は導出して返す
type EnrollmentView struct {
	Enrollment model.Enrollment `json:"enrollment"`
	ExpiresAt  *time.Time       `json:"effective_expires_at"`
	Entitled   bool             `json:"entitled"`
}

// ListForStudentは学生の受講権一覧を実効期限つきで返す
func (u *EntitlementUsecase) ListForStudent(ctx context.Context, studentID string, now time.Time) ([]EnrollmentView, error) {
	enrollments, err := u.enrollRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, storeErr(err)
	}

	views := make([]EnrollmentView, 0, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]

		expiry, err := u.effectiveExpiry(ctx, e)
		if err != nil {
			return nil, err
		}

		entitled := e.Status == model.EnrollmentStatusActive &&
			(expiry == nil || !now.After(*expiry))

		views = append(views, EnrollmentView{
			Enrollment: *e,
			ExpiresAt:  expiry,
			Entitled:   entitled,
		})
	}

	return views, nil
}

// ExtendForReviewはレビュー提出と引き換えに受講権を復活・延長する。
// BLOCKEDでも期限切れでもACTIVEに戻る唯一の経路。冪等（何度呼んでもACTIVE・期限は前に進むだけ）
func (u *EntitlementUsecase) ExtendForReview(ctx context.Context, studentID string, courseID string, videoURL string, originalFilename string, now time.Time) error {
	var enrollment *model.Enrollment

	err := u.txm.WithinTx(ctx, func(r repository.TxRepos) error {
		e, err := r.Enrollments().FindByStudentAndCourse(ctx, studentID, courseID)
		if err != nil {
			if errors.Is(err, repository.ErrEnrollmentNotFound) {
				return ErrEnrollmentNotFound
			}
			return storeErr(err)
		}

		newExpiry := now.AddDate(0, 0, reviewExtensionDays)
		e.Status = model.EnrollmentStatusActive
		e.ExpiresAt = &newExpiry

		if err := r.Enrollments().Update(ctx, e); err != nil {
			return storeErr(err)
		}

		//レビュー記録は追記専用ログ
		req := &model.CourseReviewRequest{
			ID:               u.idGen.NewID(),
			PersonID:         studentID,
			CourseID:         courseID,
			VideoURL:         videoURL,
			OriginalFilename: originalFilename,
			Status:           model.ReviewRequestStatusApproved,
		}
		if err := r.ReviewRequests().Create(ctx, req); err != nil {
			return storeErr(err)
		}

		enrollment = e
		return nil
	})
	if err != nil {
		return err
	}

	u.logger.Info().
		Str("student_id", studentID).
		Str("course_id", courseID).
		Time("expires_at", *enrollment.ExpiresAt).
		Msg("access extended for review")

	student, serr := u.personRepo.FindByID(ctx, studentID)
	course, cerr := u.courseRepo.FindByID(ctx, courseID)

	u.fireAndForgetNotify(ctx, studentID,
		"Доступ продовжено",
		"Дякуємо за ваш відгук! Доступ до курсу поновлено на 31 день.",
		model.NotificationTypeCourseAccessExtended)

	if serr == nil && cerr == nil {
		u.broadcastToAdmins(ctx,
			"Продовження доступу за відгук",
			"Користувач "+student.FullName()+" ("+student.Email+") надіслав відео-відгук для курсу \""+
				course.Name+"\". Доступ продовжено автоматично.",
			model.NotificationTypeSystem)
		u.fireAndForgetEmail("access extended", func(ctx context.Context) error {
			return u.mailer.SendAccessExtended(ctx, student.Email, student.FirstName, course.Name, *enrollment.ExpiresAt)
		})
	}

	return nil
}

// SweepExpirationsは実効期限を過ぎたACTIVEをBLOCKEDに落とす。ブロックした件数を返す。
// 行ごとにトランザクション内で読み直してから比較するので、
// 直前にExtendForReviewされた行を古い読みで誤ブロックすることはない
func (u *EntitlementUsecase) SweepExpirations(ctx context.Context, now time.Time) (int, error) {
	active, err := u.enrollRepo.ListByStatus(ctx, model.EnrollmentStatusActive)
	if err != nil {
		return 0, storeErr(err)
	}

	blocked := 0
	for i := range active {
		id := active[i].ID

		err := u.txm.WithinTx(ctx, func(r repository.TxRepos) error {
			e, err := r.Enrollments().FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrEnrollmentNotFound) {
					return nil // 並行して剥奪された。スキップ
				}
				return storeErr(err)
			}
			if e.Status != model.EnrollmentStatusActive {
				return nil
			}

			expiry, err := u.effectiveExpiryWith(ctx, r.Courses(), e)
			if err != nil {
				return err
			}
			if expiry == nil || !now.After(*expiry) {
				return nil
			}

			e.Status = model.EnrollmentStatusBlocked
			if err := r.Enrollments().Update(ctx, e); err != nil {
				return storeErr(err)
			}

			blocked++
			return nil
		})
		if err != nil {
			return blocked, err
		}
	}

	u.logger.Info().Int("blocked", blocked).Msg("enrollment expiration sweep completed")
	return blocked, nil
}

// NotifyUpcomingExpirationsは実効期限がちょうど30日後（同じ暦日、UTC）の
// ACTIVEな受講権にリマインダーを送る。日次起動なら受講権ごとに1回で済む。
// 起動が止まっていた日にまたがった分は送られない（既知の挙動）
func (u *EntitlementUsecase) NotifyUpcomingExpirations(ctx context.Context, now time.Time) (int, error) {
	active, err := u.enrollRepo.ListByStatus(ctx, model.EnrollmentStatusActive)
	if err != nil {
		return 0, storeErr(err)
	}

	targetDay := now.UTC().AddDate(0, 0, expiryReminderLeadDays)
	sent := 0

	for i := range active {
		e := &active[i]

		expiry, err := u.effectiveExpiry(ctx, e)
		if err != nil {
			return sent, err
		}
		if expiry == nil || !sameCalendarDay(expiry.UTC(), targetDay) {
			continue
		}

		student, err := u.personRepo.FindByID(ctx, e.StudentID)
		if err != nil {
			u.logger.Warn().Err(err).Str("enrollment_id", e.ID).Msg("reminder skipped: student lookup failed")
			continue
		}
		course, err := u.courseRepo.FindByID(ctx, e.CourseID)
		if err != nil {
			u.logger.Warn().Err(err).Str("enrollment_id", e.ID).Msg("reminder skipped: course lookup failed")
			continue
		}

		expiresOn := *expiry
		u.fireAndForgetEmail("expiry reminder", func(ctx context.Context) error {
			return u.mailer.SendExpiryReminder(ctx, student.Email, student.FullName(), course.Name, expiresOn)
		})
		u.fireAndForgetNotify(ctx, e.StudentID,
			"Доступ скоро закінчиться",
			"Доступ до курсу \""+course.Name+"\" закінчується через 30 днів.",
			model.NotificationTypeCourseExpiringSoon)

		sent++
	}

	u.logger.Info().Int("reminders", sent).Msg("expiration reminder pass completed")
	return sent, nil
}

func (u *EntitlementUsecase) effectiveExpiry(ctx context.Context, e *model.Enrollment) (*time.Time, error) {
	return u.effectiveExpiryWith(ctx, u.courseRepo, e)
}

// 実効期限の導出。明示期限が無いときだけコースのaccess_durationを引く
func (u *EntitlementUsecase) effectiveExpiryWith(ctx context.Context, courses repository.CourseRepository, e *model.Enrollment) (*time.Time, error) {
	if e.ExpiresAt != nil {
		return e.ExpiresAt, nil
	}

	course, err := courses.FindByID(ctx, e.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			// コースが消えた受講権は時間では失効しない
			return nil, nil
		}
		return nil, storeErr(err)
	}

	return e.EffectiveExpiry(course.AccessDurationDays), nil
}

// 管理者全員への通知。1人分の失敗で止めない
func (u *EntitlementUsecase) broadcastToAdmins(ctx context.Context, title string, message string, kind model.NotificationType) {
	admins, err := u.personRepo.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		u.logger.Warn().Err(err).Msg("admin broadcast skipped: admin list failed")
		return
	}

	for i := range admins {
		u.fireAndForgetNotify(ctx, admins[i].ID, title, message, kind)
	}
}

func (u *EntitlementUsecase) fireAndForgetNotify(ctx context.Context, recipientID string, title string, message string, kind model.NotificationType) {
	if err := u.notifier.Notify(ctx, recipientID, title, message, kind); err != nil {
		u.logger.Warn().Err(err).Str("recipient_id", recipientID).Msg("notification failed")
	}
}

func (u *EntitlementUsecase) fireAndForgetEmail(what string, send func(ctx context.Context) error) {
	//メールはリクエストのキャンセルに巻き込まない
	if err := send(context.Background()); err != nil {
		u.logger.Warn().Err(err).Str("email", what).Msg("email send failed")
	}
}

func sameCalendarDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
