package model

import "time"

// リフレッシュトークン。DBには平文でなくsha256ハッシュを保存する。
// 一度rotateされた値は行ごと消えるので、再利用は必ず失敗する。
type RefreshToken struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	PersonID  string    `json:"person_id" gorm:"type:uuid;not null;index"`
	TokenHash string    `json:"-" gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
}
