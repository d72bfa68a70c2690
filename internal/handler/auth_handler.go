package handler

import (
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"school/internal/usecase"
)

const refreshCookieName = "refresh"

// /auth のHTTP
type AuthHandler struct {
	authUC       *usecase.AuthUsecase
	tokenUC      *usecase.TokenUsecase
	refreshTTL   time.Duration // refresh cookie の有効期限
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(authUC *usecase.AuthUsecase, tokenUC *usecase.TokenUsecase, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authUC:       authUC,
		tokenUC:      tokenUC,
		refreshTTL:   refreshTTL,
		cookieSecure: envBool("COOKIE_SECURE", true),
	}
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True":
		return true
	case "0", "false", "FALSE", "False":
		return false
	default:
		return def
	}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type magicLoginRequest struct {
	Token string `json:"token"`
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

// user + access token。refreshはcookieで返す
type authResponse struct {
	User            personResponse `json:"user"`
	AccessToken     string         `json:"access_token"`
	AccessExpiresAt time.Time      `json:"access_expires_at"`
}

type personResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// /auth/* を登録
func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/auth")

	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout)
	g.POST("/magic-link", h.requestMagicLink)
	g.POST("/magic-login", h.magicLogin)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.authUC.Register(c.Request().Context(), usecase.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return writeError(c, err)
	}

	h.setRefreshCookie(c, out.Tokens.RefreshTokenPlain)
	return c.JSON(http.StatusCreated, toAuthResponse(out))
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.authUC.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	h.setRefreshCookie(c, out.Tokens.RefreshTokenPlain)
	return c.JSON(http.StatusOK, toAuthResponse(out))
}

// refreshはcookieの旧トークンをローテーションして新しい組を返す。
// 失敗（盗用・期限切れ・再利用）は全部401で、クライアントは再ログインする
func (h *AuthHandler) refresh(c echo.Context) error {
	plain := h.refreshTokenFrom(c)
	if plain == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	tokens, err := h.tokenUC.Rotate(c.Request().Context(), plain)
	if err != nil {
		h.clearRefreshCookie(c)
		return writeError(c, err)
	}

	h.setRefreshCookie(c, tokens.RefreshTokenPlain)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token":      tokens.AccessToken,
		"access_expires_at": tokens.AccessExpiresAt,
	})
}

func (h *AuthHandler) logout(c echo.Context) error {
	plain := h.refreshTokenFrom(c)

	if err := h.authUC.Logout(c.Request().Context(), plain); err != nil {
		return writeError(c, err)
	}

	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) requestMagicLink(c echo.Context) error {
	var req magicLinkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	linkBase := getenvDefault("MAGIC_LINK_BASE_URL", "http://localhost:3000/magic-login")
	if err := h.authUC.RequestMagicLink(c.Request().Context(), req.Email, linkBase); err != nil {
		return writeError(c, err)
	}

	// 存在有無にかかわらず同じ応答
	return c.NoContent(http.StatusAccepted)
}

func (h *AuthHandler) magicLogin(c echo.Context) error {
	var req magicLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.authUC.MagicLogin(c.Request().Context(), req.Token)
	if err != nil {
		return writeError(c, err)
	}

	h.setRefreshCookie(c, out.Tokens.RefreshTokenPlain)
	return c.JSON(http.StatusOK, toAuthResponse(out))
}

// cookie優先、無ければAuthorizationとは別のヘッダは見ない
func (h *AuthHandler) refreshTokenFrom(c echo.Context) string {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, plainRefresh string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plainRefresh,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func toAuthResponse(out usecase.AuthOutput) authResponse {
	return authResponse{
		User: personResponse{
			ID:        out.Person.ID,
			Email:     out.Person.Email,
			FirstName: out.Person.FirstName,
			LastName:  out.Person.LastName,
			Role:      string(out.Person.Role),
		},
		AccessToken:     out.Tokens.AccessToken,
		AccessExpiresAt: out.Tokens.AccessExpiresAt,
	}
}

func getenvDefault(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
