package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

const (
	schemeBasic  = "basic"
	schemeBearer = "bearer"
)

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (int64, error)
	VerifyToken(ctx context.Context, token string) (int64, error)
}

type AuthMiddleware struct {
	authenticator Authenticator
	metrics       *metrics.Metrics
}

func NewAuthMiddleware(authenticator Authenticator, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		metrics:       m,
	}
}

// Authenticate accepts HTTP Basic credentials or a bearer token and stores
// the caller's user id in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return m.authenticate(true)
}

// RequireBasic only accepts HTTP Basic credentials.
func (m *AuthMiddleware) RequireBasic() gin.HandlerFunc {
	return m.authenticate(false)
}

func (m *AuthMiddleware) authenticate(allowBearer bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			userID int64
			err    error
			scheme = schemeBasic
		)

		header := c.GetHeader("Authorization")
		switch {
		case allowBearer && hasScheme(header, "Bearer"):
			scheme = schemeBearer
			token := strings.TrimSpace(header[len("Bearer "):])
			userID, err = m.authenticator.VerifyToken(c.Request.Context(), token)
		default:
			username, password, ok := c.Request.BasicAuth()
			if !ok {
				m.fail(c, scheme, apperrors.Unauthorized("missing credentials", nil))
				return
			}
			userID, err = m.authenticator.Authenticate(c.Request.Context(), username, password)
		}

		if err != nil {
			m.fail(c, scheme, err)
			return
		}

		handler.SetUserID(c, userID)
		c.Next()
	}
}

func (m *AuthMiddleware) fail(c *gin.Context, scheme string, err error) {
	if m.metrics != nil && apperrors.IsCode(err, apperrors.ErrUnauthorized) {
		m.metrics.AuthFailures.WithLabelValues(scheme).Inc()
	}
	handler.RespondError(c, err)
}

func hasScheme(header, scheme string) bool {
	return len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) && header[len(scheme)] == ' '
}
