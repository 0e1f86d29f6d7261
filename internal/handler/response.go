package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
)

// BasicRealm is advertised on every 401 response.
const BasicRealm = `Basic realm="medrecords"`

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError writes err as an error envelope and aborts the chain.
// Validation failures become 400 with one message per field; errors that are
// not AppErrors become a generic 500.
func RespondError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, &Response{
			Status:  "error",
			Message: "validation failed",
			Data:    gin.H{"errors": ValidationMessages(verrs)},
		})
		return
	}

	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	status := appErr.StatusCode()

	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", BasicRealm)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, NewErrorResponse(appErr.Message))
}
