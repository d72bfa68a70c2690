package model

import (
	"errors"
	"time"
)

type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleSandboxAdmin Role = "SANDBOX_ADMIN" // デモ用管理者。自分が作ったものだけ変更できる
	RoleUser         Role = "USER"
	RoleSandboxUser  Role = "SANDBOX_USER" // デモ用の一般ユーザー
)

var ErrUnknownRole = errors.New("unknown role")

// 文字列からRoleへ。閉じた集合以外は受け付けない
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleSandboxAdmin, RoleUser, RoleSandboxUser:
		return Role(s), nil
	default:
		return "", ErrUnknownRole
	}
}

// デモ用ロールかどうか
func (r Role) IsSandbox() bool {
	return r == RoleSandboxAdmin || r == RoleSandboxUser
}

type Person struct {
	ID          string     `json:"id" gorm:"type:uuid;primaryKey"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email" gorm:"uniqueIndex;not null"`
	Password    string     `json:"-" gorm:"not null"`
	Role        Role       `json:"role" gorm:"type:varchar(20);not null;default:'USER'"`
	LastLoginAt *time.Time `json:"last_login_at"`
	Timestamp   Timestamp  `json:"timestamps" gorm:"embedded"`
}

// 表示名（メール・通知で使う）
func (p *Person) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
