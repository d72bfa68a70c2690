package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school/internal/domain/model"
	"school/internal/middleware"
	"school/internal/usecase"
)

type stubVerifier struct {
	ident usecase.Identity
	err   error
}

func (s *stubVerifier) VerifyAccessToken(_ string) (usecase.Identity, error) {
	return s.ident, s.err
}

func doRequest(t *testing.T, verifier middleware.AccessTokenVerifier, authHeader string) (*httptest.ResponseRecorder, usecase.Identity, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotIdent usecase.Identity
	var called bool
	h := middleware.AuthJWT(verifier)(func(c echo.Context) error {
		gotIdent, called = middleware.IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, h(c))
	return rec, gotIdent, called
}

func TestAuthJWT_ValidToken(t *testing.T) {
	verifier := &stubVerifier{ident: usecase.Identity{PersonID: "p-1", Role: model.RoleUser}}

	rec, ident, called := doRequest(t, verifier, "Bearer some-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Equal(t, "p-1", ident.PersonID)
	assert.Equal(t, model.RoleUser, ident.Role)
}

func TestAuthJWT_MissingHeader(t *testing.T) {
	verifier := &stubVerifier{ident: usecase.Identity{PersonID: "p-1", Role: model.RoleUser}}

	rec, _, called := doRequest(t, verifier, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthJWT_MalformedHeader(t *testing.T) {
	verifier := &stubVerifier{ident: usecase.Identity{PersonID: "p-1", Role: model.RoleUser}}

	for _, header := range []string{"some-token", "Basic abc", "Bearer "} {
		rec, _, called := doRequest(t, verifier, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.False(t, called, "header %q", header)
	}
}

func TestAuthJWT_InvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("bad signature")}

	rec, _, called := doRequest(t, verifier, "Bearer tampered")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireRoles(t *testing.T) {
	e := echo.New()

	newCtx := func() (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		rec := httptest.NewRecorder()
		return e.NewContext(req, rec), rec
	}

	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	guard := middleware.RequireAdmin()(ok)

	// ADMINとSANDBOX_ADMINは通る
	for _, role := range []model.Role{model.RoleAdmin, model.RoleSandboxAdmin} {
		c, rec := newCtx()
		c.Set(middleware.CtxIdentityKey, usecase.Identity{PersonID: "p-1", Role: role})
		require.NoError(t, guard(c))
		assert.Equal(t, http.StatusOK, rec.Code, "role %s", role)
	}

	// 一般ユーザーは403
	c, rec := newCtx()
	c.Set(middleware.CtxIdentityKey, usecase.Identity{PersonID: "p-1", Role: model.RoleUser})
	require.NoError(t, guard(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Identityなしは401
	c, rec = newCtx()
	require.NoError(t, guard(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
