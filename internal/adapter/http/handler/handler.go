package handler

import (
	"errors"
	"net/http"

	"dgbcommerce-api/internal/adapter/http/dto"
	"dgbcommerce-api/pkg/apperror"
	"dgbcommerce-api/pkg/metrics"
	"dgbcommerce-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// bindJSON binds, validates and sanitizes a JSON body. On failure it writes
// a VAL_001 response and returns false.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return false
	}
	dto.SanitizeStruct(req)
	return true
}

func parseID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Error(c, apperror.Validation("id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func isClientError(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.HTTPStatus < http.StatusInternalServerError
}

func outcome(err error) string {
	return metrics.Outcome(err, isClientError)
}
