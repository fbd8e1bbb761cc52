package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/domain"
	"github.com/satriahrh/diet-coach/utils/log"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func ok(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success: true,
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// statusFor maps domain and echo errors to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrMemberExists):
		return http.StatusConflict, domain.ErrMemberExists.Error()
	case errors.Is(err, domain.ErrMemberNotFound):
		return http.StatusNotFound, domain.ErrMemberNotFound.Error()
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, domain.ErrRecordNotFound.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// ErrorHandler renders every handler error as a failed envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := statusFor(err)
	logger := log.WithCtx(c.Request().Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	}

	resp := Response{Success: false, Code: status, Message: message}
	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, resp)
	}
	if werr != nil {
		logger.Warn("write error response", zap.Error(werr))
	}
}
