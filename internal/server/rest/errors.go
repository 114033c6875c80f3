package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/teamboard/internal/common"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{common.ErrInvalidRequest, http.StatusBadRequest, common.CodeInvalidRequest},
	{common.ErrorValidation, http.StatusBadRequest, common.CodeValidation},
	{common.ErrInvalidRefreshToken, http.StatusUnauthorized, common.CodeInvalidRefreshToken},
	{common.ErrAuthTokenExpired, http.StatusUnauthorized, common.CodeAuthTokenExpired},
	{common.ErrInvalidToken, http.StatusUnauthorized, common.CodeInvalidAccessToken},
	{common.ErrorUnauthorized, http.StatusUnauthorized, common.CodeUnauthorized},
	{common.ErrorForbidden, http.StatusForbidden, common.CodeForbidden},
	{common.ErrorAlreadyExists, http.StatusConflict, common.CodeAlreadyExists},
}

// mapError returns the status and body for err. Unknown errors become 500
// without leaking their text.
func mapError(err error) (int, ErrorResponse) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, ErrorResponse{Code: e.code, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Code: common.CodeInternal, Message: common.ErrorInternal.Error()}
}

func abortWithError(c *gin.Context, err error) {
	status, body := mapError(err)
	c.AbortWithStatusJSON(status, body)
}
