package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, username, password string) (int64, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAuthenticator) VerifyToken(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}

func newAuthEngine(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", mw, func(c *gin.Context) {
		id, _ := handler.UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func TestAuthMiddleware_Basic(t *testing.T) {
	authn := new(mockAuthenticator)
	authn.On("Authenticate", mock.Anything, "alice", "s3cretpass").Return(int64(3), nil)
	authn.On("Authenticate", mock.Anything, "alice", "wrong").
		Return(int64(0), apperrors.Unauthorized("invalid credentials", nil))

	m := metrics.New("test", prometheus.NewRegistry())
	r := newAuthEngine(NewAuthMiddleware(authn, m).Authenticate())

	tests := []struct {
		name     string
		setup    func(*http.Request)
		wantCode int
		wantBody string
	}{
		{
			name:     "valid credentials",
			setup:    func(req *http.Request) { req.SetBasicAuth("alice", "s3cretpass") },
			wantCode: http.StatusOK,
			wantBody: `{"user_id":3}`,
		},
		{
			name:     "wrong password",
			setup:    func(req *http.Request) { req.SetBasicAuth("alice", "wrong") },
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "no header",
			setup:    func(*http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			if tt.wantCode == http.StatusUnauthorized {
				assert.Equal(t, handler.BasicRealm, w.Header().Get("WWW-Authenticate"))
			}
		})
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.AuthFailures.WithLabelValues(schemeBasic)))
	authn.AssertExpectations(t)
}

func TestAuthMiddleware_Bearer(t *testing.T) {
	authn := new(mockAuthenticator)
	authn.On("VerifyToken", mock.Anything, "good").Return(int64(9), nil)
	authn.On("VerifyToken", mock.Anything, "bad").Return(int64(0), apperrors.Unauthorized("invalid token", nil))

	mw := NewAuthMiddleware(authn, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	newAuthEngine(mw.Authenticate()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":9}`, w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer bad")
	newAuthEngine(mw.Authenticate()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The token endpoint only takes a password.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	newAuthEngine(mw.RequireBasic()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	authn.AssertExpectations(t)
}
