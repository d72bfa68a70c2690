package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school/internal/domain/model"
	"school/internal/usecase"
)

// JWTのexp検証はライブラリが実時間で行うので、開始時刻は実時間に合わせる
var tokenTestStart = time.Now().UTC().Truncate(time.Second)

func newTokenFixture(t *testing.T) (*usecase.TokenUsecase, *memRefreshTokenRepo, *fakeClock, *model.Person) {
	t.Helper()

	person := model.Person{ID: "person-1", Email: "student@school.test", Role: model.RoleUser}

	rtRepo := newMemRefreshTokenRepo()
	personRepo := newMemPersonRepo(person)
	txm := &fakeTxManager{repos: &fakeTxRepos{
		rt:      rtRepo,
		enroll:  newMemEnrollmentRepo(),
		courses: newMemCourseRepo(),
		persons: personRepo,
		reviews: &memReviewRepo{},
	}}
	clock := newFakeClock(tokenTestStart)

	uc := usecase.NewTokenUsecase(rtRepo, personRepo, txm, &seqIDGen{}, clock,
		"access-secret", "magic-secret",
		15*time.Minute, 7*24*time.Hour, 15*time.Minute)

	return uc, rtRepo, clock, &person
}

func TestTokenUsecase_Issue_StoresHashNotPlaintext(t *testing.T) {
	uc, rtRepo, _, person := newTokenFixture(t)

	out, err := uc.Issue(context.Background(), person)
	require.NoError(t, err)

	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshTokenPlain)
	assert.Equal(t, tokenTestStart.Add(7*24*time.Hour), out.RefreshExpiresAt)

	// 平文がそのまま保存されていないこと
	stored, err := rtRepo.FindByTokenHash(context.Background(), out.RefreshTokenPlain)
	assert.Nil(t, stored)
	assert.Error(t, err)
	assert.Equal(t, 1, rtRepo.count())
}

func TestTokenUsecase_Rotate_IssuesNewPairAndInvalidatesOld(t *testing.T) {
	uc, rtRepo, _, person := newTokenFixture(t)
	ctx := context.Background()

	first, err := uc.Issue(ctx, person)
	require.NoError(t, err)

	second, err := uc.Rotate(ctx, first.RefreshTokenPlain)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshTokenPlain, second.RefreshTokenPlain)
	assert.Equal(t, 1, rtRepo.count())

	// 旧トークンの再利用は必ず失敗する
	_, err = uc.Rotate(ctx, first.RefreshTokenPlain)
	assert.ErrorIs(t, err, usecase.ErrTokenNotFound)

	// 新トークンは生きている
	third, err := uc.Rotate(ctx, second.RefreshTokenPlain)
	require.NoError(t, err)
	assert.NotEmpty(t, third.RefreshTokenPlain)
}

func TestTokenUsecase_Rotate_UnknownToken(t *testing.T) {
	uc, _, _, _ := newTokenFixture(t)

	_, err := uc.Rotate(context.Background(), "never-issued")
	assert.ErrorIs(t, err, usecase.ErrTokenNotFound)
}

func TestTokenUsecase_Rotate_ExpiredTokenIsDeleted(t *testing.T) {
	uc, rtRepo, clock, person := newTokenFixture(t)
	ctx := context.Background()

	out, err := uc.Issue(ctx, person)
	require.NoError(t, err)

	clock.Advance(7*24*time.Hour + time.Minute)

	_, err = uc.Rotate(ctx, out.RefreshTokenPlain)
	assert.ErrorIs(t, err, usecase.ErrTokenExpired)

	// 期限切れの行は消えているので、2回目はnot found
	assert.Equal(t, 0, rtRepo.count())
	_, err = uc.Rotate(ctx, out.RefreshTokenPlain)
	assert.ErrorIs(t, err, usecase.ErrTokenNotFound)
}

func TestTokenUsecase_RevokeSession_KillsAllSessions(t *testing.T) {
	uc, rtRepo, _, person := newTokenFixture(t)
	ctx := context.Background()

	first, err := uc.Issue(ctx, person)
	require.NoError(t, err)
	second, err := uc.Issue(ctx, person)
	require.NoError(t, err)
	require.Equal(t, 2, rtRepo.count())

	personID, err := uc.RevokeSession(ctx, first.RefreshTokenPlain)
	require.NoError(t, err)
	assert.Equal(t, person.ID, personID)
	assert.Equal(t, 0, rtRepo.count())

	_, err = uc.Rotate(ctx, second.RefreshTokenPlain)
	assert.ErrorIs(t, err, usecase.ErrTokenNotFound)
}

func TestTokenUsecase_VerifyAccessToken(t *testing.T) {
	uc, _, _, person := newTokenFixture(t)

	out, err := uc.Issue(context.Background(), person)
	require.NoError(t, err)

	ident, err := uc.VerifyAccessToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, person.ID, ident.PersonID)
	assert.Equal(t, model.RoleUser, ident.Role)

	// 改ざん
	_, err = uc.VerifyAccessToken(out.AccessToken + "x")
	assert.ErrorIs(t, err, usecase.ErrInvalidToken)

	_, err = uc.VerifyAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, usecase.ErrInvalidToken)
}

func TestTokenUsecase_VerifyAccessToken_Expired(t *testing.T) {
	// 1時間前に発行されたアクセストークン（TTLは15分）は検証で落ちる
	uc, _, clock, person := newTokenFixture(t)
	clock.Set(time.Now().Add(-time.Hour))

	out, err := uc.Issue(context.Background(), person)
	require.NoError(t, err)

	_, err = uc.VerifyAccessToken(out.AccessToken)
	assert.ErrorIs(t, err, usecase.ErrInvalidToken)
}

func TestTokenUsecase_MagicToken_RoundTrip(t *testing.T) {
	uc, _, _, _ := newTokenFixture(t)

	token, err := uc.IssueMagicToken("student@school.test")
	require.NoError(t, err)

	email, err := uc.RedeemMagicToken(token)
	require.NoError(t, err)
	assert.Equal(t, "student@school.test", email)
}

func TestTokenUsecase_MagicToken_NotInterchangeableWithAccessToken(t *testing.T) {
	uc, _, _, person := newTokenFixture(t)

	out, err := uc.Issue(context.Background(), person)
	require.NoError(t, err)

	// アクセストークンはマジックリンクとして通らない（別鍵＋purpose claim）
	_, err = uc.RedeemMagicToken(out.AccessToken)
	assert.ErrorIs(t, err, usecase.ErrInvalidToken)

	magic, err := uc.IssueMagicToken(person.Email)
	require.NoError(t, err)
	_, err = uc.VerifyAccessToken(magic)
	assert.ErrorIs(t, err, usecase.ErrInvalidToken)
}

func TestTokenUsecase_MagicToken_Expired(t *testing.T) {
	// 1時間前に発行されたマジックトークン（TTLは15分）は使えない
	uc, _, clock, _ := newTokenFixture(t)
	clock.Set(time.Now().Add(-time.Hour))

	token, err := uc.IssueMagicToken("student@school.test")
	require.NoError(t, err)

	_, err = uc.RedeemMagicToken(token)
	assert.ErrorIs(t, err, usecase.ErrInvalidToken)
}

func TestTokenUsecase_PurgeExpired(t *testing.T) {
	uc, rtRepo, clock, person := newTokenFixture(t)
	ctx := context.Background()

	old, err := uc.Issue(ctx, person)
	require.NoError(t, err)

	clock.Advance(6 * 24 * time.Hour)
	fresh, err := uc.Issue(ctx, person)
	require.NoError(t, err)

	clock.Advance(2 * 24 * time.Hour) // oldは期限切れ、freshはまだ生きている

	n, err := uc.PurgeExpired(ctx, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, rtRepo.count())

	_, err = uc.Rotate(ctx, old.RefreshTokenPlain)
	assert.ErrorIs(t, err, usecase.ErrTokenNotFound)
	_, err = uc.Rotate(ctx, fresh.RefreshTokenPlain)
	assert.NoError(t, err)
}
