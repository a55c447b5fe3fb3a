package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator accepts a fixed set of tokens.
type testTokenValidator struct {
	validTokens map[string]uuid.UUID
}

func (v *testTokenValidator) ValidateToken(tokenString string) (OwnerIDGetter, error) {
	ownerID, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(ownerID), nil
}

type testClaims uuid.UUID

func (c testClaims) GetOwnerID() uuid.UUID {
	return uuid.UUID(c)
}

func echoOwner(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := GetOwnerID(r)
		require.NoError(t, err)
		_, _ = w.Write([]byte(ownerID.String()))
	})
}

func TestAuthMiddleware(t *testing.T) {
	ownerID := uuid.New()
	validator := &testTokenValidator{validTokens: map[string]uuid.UUID{
		"good-token": ownerID,
		"nil-owner":  uuid.Nil,
	}}
	handler := AuthMiddleware(validator)(echoOwner(t))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer good-token", http.StatusOK},
		{"lowercase scheme", "bearer good-token", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good-token", http.StatusUnauthorized},
		{"no token", "Bearer", http.StatusUnauthorized},
		{"extra parts", "Bearer good-token extra", http.StatusUnauthorized},
		{"unknown token", "Bearer bad-token", http.StatusUnauthorized},
		{"nil owner", "Bearer nil-owner", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/reports/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, ownerID.String(), w.Body.String())
			} else {
				assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestGetOwnerID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetOwnerID(req)
	assert.Error(t, err)
}

func TestWithOwnerID(t *testing.T) {
	ownerID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithOwnerID(req.Context(), ownerID))

	got, err := GetOwnerID(req)
	require.NoError(t, err)
	assert.Equal(t, ownerID, got)
}
