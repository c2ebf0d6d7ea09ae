package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcarver/taskhive/internal/api/shared"
	"github.com/jcarver/taskhive/internal/service/auth"
)

// MockJWTService is a mock implementation of auth.JWTService for testing.
type MockJWTService struct {
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)
}

func (m *MockJWTService) ValidateToken(
	ctx context.Context,
	tokenString string,
) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	return nil, auth.ErrInvalidToken
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		authHeader     string
		validateFn     func(ctx context.Context, tokenString string) (*auth.Claims, error)
		expectedStatus int
		expectedBody   string
		expectedUserID string
	}{
		{
			name:       "valid bearer token",
			authHeader: "Bearer good-token",
			validateFn: func(_ context.Context, tokenString string) (*auth.Claims, error) {
				assert.Equal(t, "good-token", tokenString)
				return &auth.Claims{UserID: "user-7"}, nil
			},
			expectedStatus: http.StatusOK,
			expectedUserID: "user-7",
		},
		{
			name:           "missing header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Authorization header required",
		},
		{
			name:           "malformed header",
			authHeader:     "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Invalid authorization format",
		},
		{
			name:       "expired token",
			authHeader: "Bearer expired",
			validateFn: func(context.Context, string) (*auth.Claims, error) {
				return nil, auth.ErrExpiredToken
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Token expired",
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad",
			validateFn: func(context.Context, string) (*auth.Claims, error) {
				return nil, auth.ErrInvalidToken
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Invalid token",
		},
		{
			name:       "unexpected validation failure",
			authHeader: "Bearer boom",
			validateFn: func(context.Context, string) (*auth.Claims, error) {
				return nil, errors.New("key store unreachable")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Authentication error",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotUserID string
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				gotUserID, _ = shared.UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			mw := NewAuthMiddleware(&MockJWTService{ValidateTokenFn: tt.validateFn})

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			mw.Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
			if tt.expectedUserID != "" {
				assert.True(t, nextCalled, "next handler should run for valid tokens")
				assert.Equal(t, tt.expectedUserID, gotUserID)
			} else {
				assert.False(t, nextCalled, "next handler must not run for rejected requests")
			}
		})
	}
}
