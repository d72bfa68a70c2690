package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"school/internal/domain/model"
)

// RequireRolesは許可ロール以外を403で弾く。
// AuthJWTより後ろに積むこと
func RequireRoles(allowed ...model.Role) echo.MiddlewareFunc {
	allowedSet := make(map[model.Role]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if _, ok := allowedSet[ident.Role]; !ok {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}
			return next(c)
		}
	}
}

// 管理系エンドポイント用。デモ管理者も入れる（書き込みの所有チェックはusecase側）
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRoles(model.RoleAdmin, model.RoleSandboxAdmin)
}
