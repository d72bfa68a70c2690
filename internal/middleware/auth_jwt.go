package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"school/internal/usecase"
)

const CtxIdentityKey = "identity" // usecase.Identity

// アクセストークンの検証の約束（statelessな検証のみ）
type AccessTokenVerifier interface {
	VerifyAccessToken(raw string) (usecase.Identity, error)
}

// bearerAuth用のJWT検証ミドルウェア。
// 通ったらcontextにIdentityを積む
func AuthJWT(verifier AccessTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			ident, err := verifier.VerifyAccessToken(rawToken)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxIdentityKey, ident)
			return next(c)
		}
	}
}

// contextからIdentityを取り出す
func IdentityFrom(c echo.Context) (usecase.Identity, bool) {
	ident, ok := c.Get(CtxIdentityKey).(usecase.Identity)
	return ident, ok
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
