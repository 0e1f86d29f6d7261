package handler

import "github.com/gin-gonic/gin"

// Context keys shared with the middleware.
const (
	UserIDKey    = "user_id"
	RequestIDKey = "request_id"
)

// SetUserID stores the authenticated user id on the request.
func SetUserID(c *gin.Context, id int64) {
	c.Set(UserIDKey, id)
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
