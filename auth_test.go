package foodrecipe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guardedRouter(env *testEnv) *chi.Mux {
	r := chi.NewRouter()

	r.With(env.auth.UserRequired()).Get("/user", func(w http.ResponseWriter, r *http.Request) {
		claims, err := env.auth.GetClaimsFromCtx(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(claims.Username))
	})

	r.With(env.auth.AdminRequired()).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		admission, ok := env.auth.GetAdmissionFromCtx(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(admission.Method.String() + ":" + admission.Username))
	})

	return r
}

func serveGuarded(r *chi.Mux, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestUserRequired(t *testing.T) {
	env := newTestEnv(t)
	r := guardedRouter(env)
	ala := env.createUser(t, "ala", "kot")

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"missing header", nil, http.StatusUnauthorized},
		{"wrong scheme", map[string]string{AuthHeaderName: "Basic YWxhOmtvdA=="}, http.StatusUnauthorized},
		{"empty bearer", map[string]string{AuthHeaderName: "Bearer "}, http.StatusUnauthorized},
		{"invalid token", bearer("garbage"), http.StatusForbidden},
		{"valid token", bearer(env.tokenFor(t, ala)), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveGuarded(r, "/user", tt.headers)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := serveGuarded(r, "/user", bearer(env.tokenFor(t, ala)))
	assert.Equal(t, "ala", rec.Body.String())
}

func TestAdminRequired_Admission(t *testing.T) {
	env := newTestEnv(t)
	r := guardedRouter(env)

	admin := env.createUser(t, testAdmin, "secret")
	ala := env.createUser(t, "ala", "kot")

	adminToken := env.tokenFor(t, admin)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
		body    string
	}{
		{
			name:    "static key",
			headers: map[string]string{AdminKeyHeaderName: testAdminKey},
			status:  http.StatusOK,
			body:    "static-key:",
		},
		{
			name:    "admin token",
			headers: bearer(adminToken),
			status:  http.StatusOK,
			body:    "claim-token:" + testAdmin,
		},
		{
			name: "wrong key falls back to token",
			headers: map[string]string{
				AdminKeyHeaderName: "nope",
				AuthHeaderName:     "Bearer " + adminToken,
			},
			status: http.StatusOK,
			body:   "claim-token:" + testAdmin,
		},
		{
			name:    "wrong key without token",
			headers: map[string]string{AdminKeyHeaderName: "nope"},
			status:  http.StatusForbidden,
		},
		{
			name:    "non-admin token",
			headers: bearer(env.tokenFor(t, ala)),
			status:  http.StatusForbidden,
		},
		{
			name:   "no credentials",
			status: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveGuarded(r, "/admin", tt.headers)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), "access to admin panel denied")
			}
		})
	}
}

func TestAdminRequired_EmptyKeyDisablesStaticPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.AdminKey = ""
	env := newTestEnvWithConfig(t, cfg)
	r := guardedRouter(env)

	rec := serveGuarded(r, "/admin", map[string]string{AdminKeyHeaderName: testAdminKey})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthService_LoginUser(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ala", "kot")
	ctx := context.Background()

	token, err := env.auth.LoginUser(ctx, "ala", "kot")
	require.NoError(t, err)

	claims, err := env.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ala", claims.Username)
	assert.Empty(t, claims.Role)

	_, err = env.auth.LoginUser(ctx, "ala", "pies")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.LoginUser(ctx, "ghost", "kot")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.LoginUser(ctx, "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_LoginAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, testAdmin, "secret")
	env.createUser(t, "ala", "kot")
	ctx := context.Background()

	token, err := env.auth.LoginAdmin(ctx, testAdmin, "secret")
	require.NoError(t, err)

	claims, err := env.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = env.auth.LoginAdmin(ctx, "ala", "kot")
	assert.ErrorIs(t, err, ErrAccessDenied)
}
