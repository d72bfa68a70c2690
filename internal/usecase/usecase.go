package usecase

import (
	"errors"
	"fmt"
	"time"

	"school/internal/domain/model"
)

// 現在時刻を返す約束。テストで差し替える
type Clock interface {
	Now() time.Time
}

// UUID等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 認証済み呼び出し元。誰が呼んでいるかは必ず引数で渡す
// （グローバルなセキュリティコンテキストは使わない）
type Identity struct {
	PersonID string
	Role     model.Role
}

// 永続層の想定外エラー。業務エラーではないので呼び出し側は5xx相当として扱う
var ErrStoreUnavailable = errors.New("store unavailable")

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
