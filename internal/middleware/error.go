package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/handler"
)

// ErrorHandler renders errors that a handler attached with c.Error without
// writing a response itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		handler.RespondError(c, c.Errors.Last().Err)
	}
}
