package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/domain/shared/failure"
)

const (
	genericMessage  = "something went wrong, please try again later"
	upstreamMessage = "payment processor unavailable, please try again later"
)

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func statusFor(err error) int {
	switch failure.KindOf(err) {
	case failure.KindValidation:
		return http.StatusBadRequest
	case failure.KindAuthorization:
		return http.StatusForbidden
	case failure.KindNotFound:
		return http.StatusNotFound
	case failure.KindStateConflict, failure.KindUnavailable:
		return http.StatusConflict
	case failure.KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {status, message}. Processor and unclassified
// errors are logged and replaced by a fixed message.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusBadGateway:
		msg = upstreamMessage
		if logger != nil {
			logger.Warn("payment processor call failed", requestAttrs(c, err)...)
		}
	case http.StatusInternalServerError:
		msg = genericMessage
		if logger != nil && !errors.Is(err, context.Canceled) {
			logger.Error("request failed", requestAttrs(c, err)...)
		}
	}
	c.AbortWithStatusJSON(status, errorBody{Status: status, Message: msg})
}

func requestAttrs(c *gin.Context, err error) []any {
	return []any{"method", c.Request.Method, "path", c.FullPath(), "request_id", c.GetString("request_id"), "err", err}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Status: http.StatusBadRequest, Message: msg})
}
