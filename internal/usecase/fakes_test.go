package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"school/internal/domain/model"
	repo "school/internal/repository"
)

// =====================
// インメモリのリポジトリ実装（テスト専用）
// =====================

type memRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]model.RefreshToken // key: ID
}

func newMemRefreshTokenRepo() *memRefreshTokenRepo {
	return &memRefreshTokenRepo{tokens: map[string]model.RefreshToken{}}
}

func (r *memRefreshTokenRepo) Create(_ context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.ID] = *token
	return nil
}

func (r *memRefreshTokenRepo) FindByTokenHash(_ context.Context, tokenHash string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			found := t
			return &found, nil
		}
	}
	return nil, repo.ErrRefreshTokenNotFound
}

func (r *memRefreshTokenRepo) DeleteByID(_ context.Context, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[tokenID]; !ok {
		return repo.ErrRefreshTokenNotFound
	}
	delete(r.tokens, tokenID)
	return nil
}

func (r *memRefreshTokenRepo) DeleteAllByPersonID(_ context.Context, personID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tokens {
		if t.PersonID == personID {
			delete(r.tokens, id)
		}
	}
	return nil
}

func (r *memRefreshTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if now.After(t.ExpiresAt) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *memRefreshTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type memPersonRepo struct {
	mu      sync.Mutex
	persons map[string]model.Person
}

func newMemPersonRepo(persons ...model.Person) *memPersonRepo {
	r := &memPersonRepo{persons: map[string]model.Person{}}
	for _, p := range persons {
		r.persons[p.ID] = p
	}
	return r
}

func (r *memPersonRepo) Create(_ context.Context, person *model.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persons[person.ID] = *person
	return nil
}

func (r *memPersonRepo) FindByID(_ context.Context, id string) (*model.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.persons[id]
	if !ok {
		return nil, repo.ErrPersonNotFound
	}
	return &p, nil
}

func (r *memPersonRepo) FindByEmail(_ context.Context, email string) (*model.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.persons {
		if p.Email == email {
			found := p
			return &found, nil
		}
	}
	return nil, repo.ErrPersonNotFound
}

func (r *memPersonRepo) ListByRole(_ context.Context, role model.Role) ([]model.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Person
	for _, p := range r.persons {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPersonRepo) Update(_ context.Context, person *model.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.persons[person.ID]; !ok {
		return repo.ErrPersonNotFound
	}
	r.persons[person.ID] = *person
	return nil
}

type memEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments map[string]model.Enrollment
}

func newMemEnrollmentRepo(enrollments ...model.Enrollment) *memEnrollmentRepo {
	r := &memEnrollmentRepo{enrollments: map[string]model.Enrollment{}}
	for _, e := range enrollments {
		r.enrollments[e.ID] = e
	}
	return r
}

func (r *memEnrollmentRepo) Create(_ context.Context, enrollment *model.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return repo.ErrEnrollmentExists
		}
	}
	r.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r *memEnrollmentRepo) FindByID(_ context.Context, id string) (*model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[id]
	if !ok {
		return nil, repo.ErrEnrollmentNotFound
	}
	return &e, nil
}

func (r *memEnrollmentRepo) FindByStudentAndCourse(_ context.Context, studentID string, courseID string) (*model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			found := e
			return &found, nil
		}
	}
	return nil, repo.ErrEnrollmentNotFound
}

func (r *memEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Enrollment
	for _, e := range r.enrollments {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEnrollmentRepo) ListByStatus(_ context.Context, status model.EnrollmentStatus) ([]model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Enrollment
	for _, e := range r.enrollments {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEnrollmentRepo) Update(_ context.Context, enrollment *model.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enrollments[enrollment.ID]; !ok {
		return repo.ErrEnrollmentNotFound
	}
	r.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r *memEnrollmentRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enrollments[id]; !ok {
		return repo.ErrEnrollmentNotFound
	}
	delete(r.enrollments, id)
	return nil
}

func (r *memEnrollmentRepo) get(id string) model.Enrollment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enrollments[id]
}

type memCourseRepo struct {
	courses map[string]model.Course
}

func newMemCourseRepo(courses ...model.Course) *memCourseRepo {
	r := &memCourseRepo{courses: map[string]model.Course{}}
	for _, c := range courses {
		r.courses[c.ID] = c
	}
	return r
}

func (r *memCourseRepo) FindByID(_ context.Context, id string) (*model.Course, error) {
	c, ok := r.courses[id]
	if !ok {
		return nil, repo.ErrCourseNotFound
	}
	return &c, nil
}

func (r *memCourseRepo) ListByStatus(_ context.Context, status model.CourseStatus) ([]model.Course, error) {
	var out []model.Course
	for _, c := range r.courses {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

type memReviewRepo struct {
	mu       sync.Mutex
	requests []model.CourseReviewRequest
}

func (r *memReviewRepo) Create(_ context.Context, req *model.CourseReviewRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, *req)
	return nil
}

func (r *memReviewRepo) ListByCourse(_ context.Context, courseID string) ([]model.CourseReviewRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CourseReviewRequest
	for _, req := range r.requests {
		if req.CourseID == courseID {
			out = append(out, req)
		}
	}
	return out, nil
}

type memLessonRepo struct {
	lessons map[string]model.Lesson
}

func newMemLessonRepo(lessons ...model.Lesson) *memLessonRepo {
	r := &memLessonRepo{lessons: map[string]model.Lesson{}}
	for _, l := range lessons {
		r.lessons[l.ID] = l
	}
	return r
}

func (r *memLessonRepo) FindByID(_ context.Context, id string) (*model.Lesson, error) {
	l, ok := r.lessons[id]
	if !ok {
		return nil, repo.ErrLessonNotFound
	}
	return &l, nil
}

func (r *memLessonRepo) ListByModuleID(_ context.Context, moduleID string) ([]model.Lesson, error) {
	var out []model.Lesson
	for _, l := range r.lessons {
		if l.ModuleID != nil && *l.ModuleID == moduleID {
			out = append(out, l)
		}
	}
	return out, nil
}

type memModuleRepo struct {
	modules map[string]model.Module
}

func newMemModuleRepo(modules ...model.Module) *memModuleRepo {
	r := &memModuleRepo{modules: map[string]model.Module{}}
	for _, m := range modules {
		r.modules[m.ID] = m
	}
	return r
}

func (r *memModuleRepo) FindByID(_ context.Context, id string) (*model.Module, error) {
	m, ok := r.modules[id]
	if !ok {
		return nil, repo.ErrModuleNotFound
	}
	return &m, nil
}

type memLessonFileRepo struct {
	files map[string]model.LessonFile
}

func newMemLessonFileRepo(files ...model.LessonFile) *memLessonFileRepo {
	r := &memLessonFileRepo{files: map[string]model.LessonFile{}}
	for _, f := range files {
		r.files[f.ID] = f
	}
	return r
}

func (r *memLessonFileRepo) FindByID(_ context.Context, id string) (*model.LessonFile, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, repo.ErrFileNotFound
	}
	return &f, nil
}

func (r *memLessonFileRepo) ListByLessonID(_ context.Context, lessonID string) ([]model.LessonFile, error) {
	var out []model.LessonFile
	for _, f := range r.files {
		if f.LessonID == lessonID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memLessonFileRepo) CountByLessonID(_ context.Context, lessonID string) (int64, error) {
	var n int64
	for _, f := range r.files {
		if f.LessonID == lessonID {
			n++
		}
	}
	return n, nil
}

// =====================
// 偽のTransactionManager。ロールバックはしないが
// usecaseが同じリポジトリ群を読み直す動きはそのまま通る
// =====================

type fakeTxRepos struct {
	rt      *memRefreshTokenRepo
	enroll  *memEnrollmentRepo
	courses *memCourseRepo
	persons *memPersonRepo
	reviews *memReviewRepo
}

func (f *fakeTxRepos) RefreshTokens() repo.RefreshTokenRepository   { return f.rt }
func (f *fakeTxRepos) Enrollments() repo.EnrollmentRepository       { return f.enroll }
func (f *fakeTxRepos) Courses() repo.CourseRepository               { return f.courses }
func (f *fakeTxRepos) Persons() repo.PersonRepository               { return f.persons }
func (f *fakeTxRepos) ReviewRequests() repo.ReviewRequestRepository { return f.reviews }

type fakeTxManager struct {
	repos *fakeTxRepos
}

func (m *fakeTxManager) WithinTx(_ context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

// =====================
// Clock / IDGenerator
// =====================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// =====================
// 通知・メールの記録sink
// =====================

type sentNotification struct {
	RecipientID string
	Title       string
	Kind        model.NotificationType
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error // 非nilなら全部失敗させる
}

func (n *recordingNotifier) Notify(_ context.Context, recipientID string, title string, _ string, kind model.NotificationType) error {
	if n.err != nil {
		return n.err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{RecipientID: recipientID, Title: title, Kind: kind})
	return nil
}

func (n *recordingNotifier) countFor(recipientID string, kind model.NotificationType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.RecipientID == recipientID && s.Kind == kind {
			c++
		}
	}
	return c
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string // "welcome:addr" のような種別つき記録
	err  error
}

func (m *recordingMailer) record(kind string, address string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, kind+":"+address)
	return nil
}

func (m *recordingMailer) SendWelcome(_ context.Context, address string, _ string) error {
	return m.record("welcome", address)
}

func (m *recordingMailer) SendMagicLink(_ context.Context, address string, _ string) error {
	return m.record("magic", address)
}

func (m *recordingMailer) SendAccessGranted(_ context.Context, address string, _ string, _ string) error {
	return m.record("granted", address)
}

func (m *recordingMailer) SendAccessExtended(_ context.Context, address string, _ string, _ string, _ time.Time) error {
	return m.record("extended", address)
}

func (m *recordingMailer) SendExpiryReminder(_ context.Context, address string, _ string, _ string, _ time.Time) error {
	return m.record("reminder", address)
}

func (m *recordingMailer) count(kind string, address string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := 0
	for _, s := range m.sent {
		if s == kind+":"+address {
			c++
		}
	}
	return c
}
