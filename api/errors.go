package api

import (
	"errors"

	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Detail  string           `json:"detail,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeError renders err with the status of its taxonomy code. Upstream
// detail is only shown outside production.
func writeError(c *gin.Context, err error, hideDetail bool) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.WrapError(domain.CodeUpstreamFailure, "internal error", err)
	}

	body := errorBody{Code: de.Code, Message: de.Message}
	if de.Err != nil && !hideDetail {
		body.Detail = de.Err.Error()
	}
	if de.Code == domain.CodeUpstreamFailure && hideDetail {
		body.Message = "the airline could not complete the request"
	}
	c.AbortWithStatusJSON(de.Code.HTTPStatus(), errorResponse{Error: body})
}

func badRequest(c *gin.Context, err error) {
	writeError(c, domain.WrapError(domain.CodeValidation, "invalid request body", err), false)
}
