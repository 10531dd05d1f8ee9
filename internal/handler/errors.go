package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/jsonapi"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/apperr"
)

// ErrorHandler is the single stage that turns errors returned by handlers
// and middleware into JSON:API error documents.  Install it as
// echo.Echo.HTTPErrorHandler.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, detail := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}

		obj := &jsonapi.ErrorObject{
			Title:  http.StatusText(status),
			Detail: detail,
			Status: strconv.Itoa(status),
		}

		c.Response().Header().Set(echo.HeaderContentType, jsonapi.MediaType)
		c.Response().WriteHeader(status)
		if c.Request().Method == http.MethodHead {
			return
		}
		if werr := jsonapi.MarshalErrors(c.Response(), []*jsonapi.ErrorObject{obj}); werr != nil {
			log.Error("write error response", zap.Error(werr))
		}
	}
}

// classify maps err to a status code and a client-safe detail message.
// Handlers translate store sentinels into apperr values themselves; an
// untranslated error is a 500.
func classify(err error) (int, string) {
	if ae, ok := apperr.As(err); ok {
		return ae.Status(), ae.Message
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, msg
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
