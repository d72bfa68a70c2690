package usecase

import (
	"context"
	"errors"
	"time"

	"school/internal/domain/model"
	"school/internal/repository"
)

// バイナリダウンロードなど、スクラブ表現のない資源への拒否
var ErrAccessDenied = errors.New("access denied")

var ErrLessonNotFound = errors.New("lesson not found")

// 受講権の述語。AccessGuardはこれに管理者バイパスを重ねる
type EntitlementChecker interface {
	IsEntitled(ctx context.Context, studentID string, courseID string, now time.Time) (bool, error)
}

// クライアントに返すレッスン表現。
// 拒否時はVideoURL/FilesCount/Filesだけ落として構造（タイトル・並び）は残す
type LessonView struct {
	ID              string  `json:"id"`
	ModuleID        *string `json:"module_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	VideoURL        *string `json:"video_url"`
	DurationMinutes int     `json:"duration_minutes"`
	Position        int     `json:"position"`
	FilesCount      int     `json:"files_count"`
	Visible         bool    `json:"visible"`
}

// AccessGuardは保護リソースへのリクエスト単位の認可を決める。
// 判定結果はリクエストを越えてキャッシュしない
type AccessGuard struct {
	lessonRepo  repository.LessonRepository
	moduleRepo  repository.ModuleRepository
	fileRepo    repository.LessonFileRepository
	entitlement EntitlementChecker
}

func NewAccessGuard(
	lessonRepo repository.LessonRepository,
	moduleRepo repository.ModuleRepository,
	fileRepo repository.LessonFileRepository,
	entitlement EntitlementChecker,
) *AccessGuard {
	return &AccessGuard{
		lessonRepo:  lessonRepo,
		moduleRepo:  moduleRepo,
		fileRepo:    fileRepo,
		entitlement: entitlement,
	}
}

// CanViewLessonContentはレッスン詳細の可視判定。
// 拒否でもエラーにはせず、コンテンツ項目を抜いた構造を返す
// （UIはロック表示にできるし、404と挙動がぶれない）
func (g *AccessGuard) CanViewLessonContent(ctx context.Context, ident Identity, lessonID string, now time.Time) (LessonView, error) {
	lesson, err := g.lessonRepo.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, repository.ErrLessonNotFound) {
			return LessonView{}, ErrLessonNotFound
		}
		return LessonView{}, storeErr(err)
	}

	visible, err := g.decide(ctx, ident, g.courseIDOfLesson(ctx, lesson), now)
	if err != nil {
		return LessonView{}, err
	}

	return g.buildView(ctx, lesson, visible)
}

// ModuleLessonsはモジュールのレッスン一覧。判定はコースに対して1回だけ
func (g *AccessGuard) ModuleLessons(ctx context.Context, ident Identity, moduleID string, now time.Time) ([]LessonView, error) {
	module, err := g.moduleRepo.FindByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrModuleNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, storeErr(err)
	}

	visible, err := g.decide(ctx, ident, module.CourseID, now)
	if err != nil {
		return nil, err
	}

	lessons, err := g.lessonRepo.ListByModuleID(ctx, moduleID)
	if err != nil {
		return nil, storeErr(err)
	}

	views := make([]LessonView, 0, len(lessons))
	for i := range lessons {
		v, err := g.buildView(ctx, &lessons[i], visible)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	return views, nil
}

// LessonFilesはファイル一覧。拒否なら空リスト（エラーにしない）
func (g *AccessGuard) LessonFiles(ctx context.Context, ident Identity, lessonID string, now time.Time) ([]model.LessonFile, error) {
	lesson, err := g.lessonRepo.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, repository.ErrLessonNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, storeErr(err)
	}

	visible, err := g.decide(ctx, ident, g.courseIDOfLesson(ctx, lesson), now)
	if err != nil {
		return nil, err
	}
	if !visible {
		return []model.LessonFile{}, nil
	}

	files, err := g.fileRepo.ListByLessonID(ctx, lessonID)
	if err != nil {
		return nil, storeErr(err)
	}
	return files, nil
}

// AuthorizeFileDownloadはバイナリ本体の取得可否。
// 部分的に返す表現がないので拒否はErrAccessDenied
func (g *AccessGuard) AuthorizeFileDownload(ctx context.Context, ident Identity, fileID string, now time.Time) (*model.LessonFile, error) {
	file, err := g.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, storeErr(err)
	}

	lesson, err := g.lessonRepo.FindByID(ctx, file.LessonID)
	if err != nil {
		if errors.Is(err, repository.ErrLessonNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, storeErr(err)
	}

	visible, err := g.decide(ctx, ident, g.courseIDOfLesson(ctx, lesson), now)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrAccessDenied
	}

	return file, nil
}

// AuthorizeOwnedWriteはデモ管理者の所有チェック。受講権とは別の軸で、
// 書き込み操作にだけかける
func (g *AccessGuard) AuthorizeOwnedWrite(ident Identity, createdByID *string) error {
	switch ident.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleSandboxAdmin:
		//自分が作ったものだけ
		if createdByID != nil && *createdByID == ident.PersonID {
			return nil
		}
		return ErrAccessDenied
	case model.RoleUser, model.RoleSandboxUser:
		return ErrAccessDenied
	default:
		return ErrAccessDenied
	}
}

// 可視判定の本体。管理者ロールは無条件、コース未所属は不可、それ以外は受講権次第
func (g *AccessGuard) decide(ctx context.Context, ident Identity, courseID *string, now time.Time) (bool, error) {
	switch ident.Role {
	case model.RoleAdmin, model.RoleSandboxAdmin:
		return true, nil
	case model.RoleUser, model.RoleSandboxUser:
		if courseID == nil {
			return false, nil
		}
		return g.entitlement.IsEntitled(ctx, ident.PersonID, *courseID, now)
	default:
		return false, nil
	}
}

// レッスン→モジュール→コースとIDをたどる。途中で切れたらnil
func (g *AccessGuard) courseIDOfLesson(ctx context.Context, lesson *model.Lesson) *string {
	if lesson.ModuleID == nil {
		return nil
	}
	module, err := g.moduleRepo.FindByID(ctx, *lesson.ModuleID)
	if err != nil {
		return nil
	}
	return module.CourseID
}

func (g *AccessGuard) buildView(ctx context.Context, lesson *model.Lesson, visible bool) (LessonView, error) {
	view := LessonView{
		ID:              lesson.ID,
		ModuleID:        lesson.ModuleID,
		Name:            lesson.Name,
		Description:     lesson.Description,
		DurationMinutes: lesson.DurationMinutes,
		Position:        lesson.Position,
		Visible:         visible,
	}

	if !visible {
		// VideoURLはnil、FilesCountは0のまま返す
		return view, nil
	}

	view.VideoURL = lesson.VideoURL

	count, err := g.fileRepo.CountByLessonID(ctx, lesson.ID)
	if err != nil {
		return LessonView{}, storeErr(err)
	}
	view.FilesCount = int(count)

	return view, nil
}
