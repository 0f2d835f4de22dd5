package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// RespondInternalErr answers 500 with the underlying error text in details,
// which clients of this API rely on for diagnosis.
func RespondInternalErr(ctx *gin.Context, message string, err error) {
	var details interface{}
	if err != nil {
		details = err.Error()
	}
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, details)
}

func RespondUnavailable(ctx *gin.Context, message string, err error) {
	var details interface{}
	if err != nil {
		details = err.Error()
	}
	RespondError(ctx, http.StatusServiceUnavailable, "unavailable", message, details)
}

// respondDownstreamErr maps an unexpected store/blob failure: timeouts are
// 503, everything else 500. The request context carries the request id
// into the log record.
func respondDownstreamErr(ctx *gin.Context, log *slog.Logger, message string, err error) {
	if log != nil {
		log.ErrorContext(ctx.Request.Context(), message,
			"err", err,
			"route", ctx.FullPath(),
		)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		RespondUnavailable(ctx, message, err)
		return
	}

	RespondInternalErr(ctx, message, err)
}
