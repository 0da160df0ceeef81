package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator maps literal tokens to roles.
type testTokenValidator struct {
	roles map[string]string
}

func (v *testTokenValidator) ValidateToken(tokenString string) (RoleGetter, error) {
	role, ok := v.roles[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(role), nil
}

type testClaims string

func (c testClaims) GetRole() string {
	return string(c)
}

func newProtectedHandler(t *testing.T) http.Handler {
	validator := &testTokenValidator{roles: map[string]string{
		"admin-token":  "admin",
		"viewer-token": "viewer",
	}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, err := GetRole(r)
		require.NoError(t, err)
		_, _ = w.Write([]byte(role))
	})
	return AuthMiddleware(validator, "admin")(next)
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{name: "valid admin token", header: "Bearer admin-token", wantCode: http.StatusOK, wantBody: "admin"},
		{name: "case-insensitive scheme", header: "bearer admin-token", wantCode: http.StatusOK, wantBody: "admin"},
		{name: "missing header", header: "", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic admin-token", wantCode: http.StatusUnauthorized},
		{name: "no token", header: "Bearer", wantCode: http.StatusUnauthorized},
		{name: "extra parts", header: "Bearer admin-token extra", wantCode: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer forged", wantCode: http.StatusUnauthorized},
		{name: "other role", header: "Bearer viewer-token", wantCode: http.StatusForbidden},
	}

	handler := newProtectedHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/history", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestGetRole_MissingFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetRole(req)
	assert.Error(t, err)
}
