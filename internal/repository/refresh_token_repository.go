package repository

import (
	"context"
	"errors"
	"time"

	"school/internal/domain/model"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// リフレッシュトークンの保存・検索・削除の約束。
// DeleteByIDは対象が既に無ければErrRefreshTokenNotFoundを返すこと
// （rotateの二重実行はここで検出する）。
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	DeleteByID(ctx context.Context, tokenID string) error
	DeleteAllByPersonID(ctx context.Context, personID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
